package sitemap

import (
	"bytes"
	"encoding/xml"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sitekeeper/internal/cleanurl"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
)

// defaultPriority is assumed for entries without a <priority>.
const defaultPriority = 0.5

// PriorityValue parses the entry priority.
func (u URL) PriorityValue() float64 {
	p, err := strconv.ParseFloat(strings.TrimSpace(u.Priority), 64)
	if err != nil {
		return defaultPriority
	}
	return p
}

// Encode renders v as an XML document with declaration and trailing newline.
func Encode(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Written describes one file produced by Write.
type Written struct {
	File string
	URLs int
}

// Write generates every group sitemap plus the sitemap index under root.
func (g *Generator) Write(root string, ix *cleanurl.Index) ([]Written, error) {
	var written []Written
	for _, group := range g.cfg.Groups {
		set := g.URLSet(ix, group)
		if err := writeXML(root, group.File, set); err != nil {
			return written, err
		}
		slog.Info("Wrote sitemap", logfields.File(group.File), logfields.Count(len(set.URLs)))
		written = append(written, Written{File: group.File, URLs: len(set.URLs)})
	}
	idx := g.SitemapIndex()
	if err := writeXML(root, g.cfg.IndexOutput, idx); err != nil {
		return written, err
	}
	slog.Info("Wrote sitemap index", logfields.File(g.cfg.IndexOutput), logfields.Count(len(idx.Sitemaps)))
	return append(written, Written{File: g.cfg.IndexOutput, URLs: len(idx.Sitemaps)}), nil
}

func writeXML(root, rel string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to encode sitemap").
			WithContext("file", rel).Build()
	}
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create sitemap directory").
			WithContext("file", rel).Build()
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write sitemap").
			WithContext("file", rel).Build()
	}
	return nil
}

// Decode reads either a urlset or a sitemapindex document.
func Decode(r io.Reader) (*URLSet, *Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	var probe struct{ XMLName xml.Name }
	if err := xml.Unmarshal(data, &probe); err != nil {
		return nil, nil, err
	}
	switch probe.XMLName.Local {
	case "sitemapindex":
		var idx Index
		if err := xml.Unmarshal(data, &idx); err != nil {
			return nil, nil, err
		}
		return nil, &idx, nil
	default:
		var set URLSet
		if err := xml.Unmarshal(data, &set); err != nil {
			return nil, nil, err
		}
		return &set, nil, nil
	}
}

// ReadURLs loads the URLs of the sitemap at rel below root. A sitemap index
// is followed one level: each listed sitemap is read from root by its URL
// path. Duplicate locations are dropped, first occurrence wins.
func ReadURLs(root, rel string) ([]URL, error) {
	set, idx, err := readFile(root, rel)
	if err != nil {
		return nil, err
	}
	if set != nil {
		return dedupe(set.URLs), nil
	}

	var all []URL
	for _, entry := range idx.Sitemaps {
		child := entry.Loc
		if u, err := url.Parse(entry.Loc); err == nil && u.Path != "" {
			child = u.Path
		}
		child = strings.TrimLeft(path.Clean("/"+child), "/")
		childSet, _, err := readFile(root, child)
		if err != nil {
			return nil, err
		}
		if childSet != nil {
			all = append(all, childSet.URLs...)
		}
	}
	return dedupe(all), nil
}

func readFile(root, rel string) (*URLSet, *Index, error) {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, nil, foundationerrors.WrapError(err, foundationerrors.CategoryNotFound, "sitemap not found").
			WithContext("file", rel).Build()
	}
	defer func() { _ = f.Close() }()
	set, idx, err := Decode(f)
	if err != nil {
		return nil, nil, foundationerrors.WrapError(err, foundationerrors.CategoryParse, "failed to parse sitemap").
			WithContext("file", rel).Build()
	}
	return set, idx, nil
}

func dedupe(urls []URL) []URL {
	seen := make(map[string]bool, len(urls))
	out := make([]URL, 0, len(urls))
	for _, u := range urls {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		u.Loc = loc
		out = append(out, u)
	}
	return out
}
