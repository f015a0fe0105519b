package cleanurl

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// ErrNotFound is returned by Lookup when no file serves a URL.
var ErrNotFound = errors.New("cleanurl: not found")

// Collision records URLs that would be served by more than one file once
// trailing slashes are ignored. Files[0] is the one the index keeps.
type Collision struct {
	URL   string
	Files []string
}

// Index is the bidirectional file/URL table of one site tree.
type Index struct {
	root       string
	byURL      map[string]string
	byFile     map[string]string
	files      []string
	collisions []Collision
}

// BuildIndex walks root, pruning ignored directories and skipping ignored
// files, and indexes every .html file. Walk order is lexical, so the first
// file of a colliding pair is deterministic.
func BuildIndex(root string, ignore IgnoreList) (*Index, error) {
	ix := &Index{
		root:   root,
		byURL:  make(map[string]string),
		byFile: make(map[string]string),
	}
	owners := make(map[string][]string)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && ignore.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".html") || ignore.SkipFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		u := FromPath(rel)
		key := collisionKey(u)
		owners[key] = append(owners[key], rel)
		if len(owners[key]) > 1 {
			return nil
		}
		ix.byURL[u] = rel
		ix.byFile[rel] = u
		ix.files = append(ix.files, rel)
		return nil
	})
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to walk site root").
			WithContext("root", root).Build()
	}

	for key, files := range owners {
		if len(files) > 1 {
			ix.collisions = append(ix.collisions, Collision{URL: key, Files: files})
		}
	}
	sort.Slice(ix.collisions, func(i, j int) bool { return ix.collisions[i].URL < ix.collisions[j].URL })
	sort.Strings(ix.files)
	return ix, nil
}

func collisionKey(u string) string {
	if len(u) > 1 {
		return strings.TrimSuffix(u, "/")
	}
	return u
}

// Root returns the directory the index was built from.
func (ix *Index) Root() string { return ix.root }

// Files returns the indexed root-relative paths in lexical order.
func (ix *Index) Files() []string { return ix.files }

// Len returns the number of indexed pages.
func (ix *Index) Len() int { return len(ix.files) }

// URLs returns every indexed clean URL in lexical order.
func (ix *Index) URLs() []string {
	urls := make([]string, 0, len(ix.byURL))
	for u := range ix.byURL {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// URLFor returns the clean URL of an indexed file.
func (ix *Index) URLFor(file string) (string, bool) {
	u, ok := ix.byFile[file]
	return u, ok
}

// Collisions lists URLs claimed by several files.
func (ix *Index) Collisions() []Collision { return ix.collisions }

// CollisionError reports the collisions as one classified error, or nil.
func (ix *Index) CollisionError() error {
	if len(ix.collisions) == 0 {
		return nil
	}
	c := ix.collisions[0]
	return foundationerrors.NewError(foundationerrors.CategoryCollision, "several files map to the same clean URL").
		Fatal().
		WithContext("url", c.URL).
		WithContext("files", strings.Join(c.Files, ", ")).
		WithContext("total", len(ix.collisions)).
		Build()
}

// Lookup resolves a clean URL to the root-relative file serving it. The
// table is consulted first, then the disk: <url>.html, <url>/index.html and
// finally the literal path as a static file.
func (ix *Index) Lookup(u string) (string, error) {
	p, _, _ := splitSuffix(u)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	if f, ok := ix.byURL[p]; ok {
		return f, nil
	}
	if f, ok := ix.byURL[p+"/"]; ok {
		return f, nil
	}
	if p == "/" {
		return "", ErrNotFound
	}

	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	rel := strings.TrimPrefix(path.Clean("/"+p), "/")
	if rel == "" || rel == "." {
		return "", ErrNotFound
	}
	for _, candidate := range []string{rel + ".html", path.Join(rel, indexFile)} {
		if ix.regularFile(candidate) {
			return candidate, nil
		}
	}
	if ix.regularFile(rel) {
		return rel, nil
	}
	return "", ErrNotFound
}

// Exists reports whether Lookup finds a file for u.
func (ix *Index) Exists(u string) bool {
	_, err := ix.Lookup(u)
	return err == nil
}

func (ix *Index) regularFile(rel string) bool {
	info, err := os.Stat(filepath.Join(ix.root, filepath.FromSlash(rel)))
	return err == nil && info.Mode().IsRegular()
}
