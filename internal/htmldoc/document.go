// Package htmldoc loads site pages into goquery documents and writes them back.
package htmldoc

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

const doctype = "<!DOCTYPE html>"

// Page is one HTML file of the site, parsed and ready for editing.
type Page struct {
	File string // root-relative, slash separated
	URL  string // clean URL
	Doc  *goquery.Document

	original []byte
	// Fallback is set when the full document parse failed and the content
	// was recovered as a fragment under a synthetic <html><body>.
	Fallback bool
}

// Load reads and parses rel below root.
func Load(root, rel, cleanURL string) (*Page, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read page").
			WithContext("file", rel).Build()
	}
	return FromBytes(rel, cleanURL, data)
}

// FromBytes parses data as the page rel. Parse failures fall back to a
// fragment parse and never fail the page.
func FromBytes(rel, cleanURL string, data []byte) (*Page, error) {
	doc, fallback, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryParse, "failed to parse page").
			WithContext("file", rel).Build()
	}
	return &Page{File: rel, URL: cleanURL, Doc: doc, original: data, Fallback: fallback}, nil
}

// Parse builds a goquery document. When the document parser rejects the
// input it is retried as a body fragment; fallback reports which path won.
func Parse(r io.Reader) (doc *goquery.Document, fallback bool, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	root, perr := html.Parse(bytes.NewReader(data))
	if perr == nil {
		return goquery.NewDocumentFromNode(root), false, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, ferr := html.ParseFragment(bytes.NewReader(data), body)
	if ferr != nil {
		return nil, false, perr
	}
	return goquery.NewDocumentFromNode(wrapFragment(nodes)), true, nil
}

func wrapFragment(nodes []*html.Node) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	htmlEl := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	head := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	doc.AppendChild(htmlEl)
	htmlEl.AppendChild(head)
	htmlEl.AppendChild(body)
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return doc
}

// Render serializes doc. The output always starts with an HTML5 doctype.
func Render(doc *goquery.Document) ([]byte, error) {
	var buf bytes.Buffer
	seenDoctype := false
	for n := doc.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return nil, err
		}
		if n.Type == html.DoctypeNode {
			seenDoctype = true
			buf.WriteByte('\n')
		}
	}
	if !seenDoctype {
		return append([]byte(doctype+"\n"), buf.Bytes()...), nil
	}
	return buf.Bytes(), nil
}

// Render serializes the page.
func (p *Page) Render() ([]byte, error) { return Render(p.Doc) }

// Original returns the bytes the page was parsed from.
func (p *Page) Original() []byte { return p.original }

// Save renders the page and writes it back under root when the output
// differs from what was read. It reports whether the file changed.
func (p *Page) Save(root string) (bool, error) {
	out, err := p.Render()
	if err != nil {
		return false, foundationerrors.WrapError(err, foundationerrors.CategoryParse, "failed to render page").
			WithContext("file", p.File).Build()
	}
	if bytes.Equal(out, p.original) {
		return false, nil
	}
	path := filepath.Join(root, filepath.FromSlash(p.File))
	if err := writeFileAtomic(path, out); err != nil {
		return false, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write page").
			WithContext("file", p.File).Build()
	}
	p.original = out
	return true, nil
}

// writeFileAtomic replaces path through a temp file in the same directory,
// keeping the original permissions.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sitekeeper-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
