package document

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mi4u/lembrete-api/internal/common"
	"github.com/mi4u/lembrete-api/internal/entity"
)

// HTMLDocument is a parsed agenda export. It wraps the DOM and offers the
// table/section views the agenda extractor reads.
type HTMLDocument struct {
	root *html.Node
}

// ParseHTML parses the agenda HTML bytes into a DOM.
func ParseHTML(data []byte) (*HTMLDocument, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, common.DocumentFormatErrorf("html parse: %v", err)
	}
	return &HTMLDocument{root: root}, nil
}

// Text returns all visible text of the document, space-joined.
func (d *HTMLDocument) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return sb.String()
}

// Tables returns every <table> as a cell grid, in document order.
func (d *HTMLDocument) Tables() []entity.Table {
	return d.TablesWithAttrs(nil)
}

// TablesWithAttrs returns the grids of the tables whose attributes include
// every given key/value pair. The agenda export marks its data tables with
// cellpadding="3" border="1".
func (d *HTMLDocument) TablesWithAttrs(attrs map[string]string) []entity.Table {
	var tables []entity.Table
	for _, tbl := range d.findAll(d.root, atom.Table) {
		if !hasAttrs(tbl, attrs) {
			continue
		}
		var grid entity.Table
		for _, tr := range d.findAll(tbl, atom.Tr) {
			var cells []string
			for _, td := range d.findAll(tr, atom.Td, atom.Th) {
				cells = append(cells, strings.TrimSpace(cellText(td)))
			}
			if cells != nil {
				grid = append(grid, cells)
			}
		}
		if grid != nil {
			tables = append(tables, grid)
		}
	}
	return tables
}

// SectionCells returns, for each element with the given tag, the text of its
// <td> cells in order. The agenda header blocks live in <center> sections.
func (d *HTMLDocument) SectionCells(tag atom.Atom) [][]string {
	var sections [][]string
	for _, sec := range d.findAll(d.root, tag) {
		var cells []string
		for _, td := range d.findAll(sec, atom.Td) {
			cells = append(cells, cellText(td))
		}
		sections = append(sections, cells)
	}
	return sections
}

// findAll collects the elements under n matching any of the given atoms, in
// document order. Matching elements are not descended into, mirroring how the
// agenda layout nests its sections.
func (d *HTMLDocument) findAll(n *html.Node, atoms ...atom.Atom) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && matchesAny(c.DataAtom, atoms) {
				found = append(found, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return found
}

func matchesAny(a atom.Atom, atoms []atom.Atom) bool {
	for _, want := range atoms {
		if a == want {
			return true
		}
	}
	return false
}

func hasAttrs(n *html.Node, attrs map[string]string) bool {
	for key, want := range attrs {
		got, ok := attrValue(n, key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// cellText concatenates the raw text of a cell, turning <br> into newlines.
// Source newlines are kept: the header cells encode their fields as
// newline-joined sub-lines and the extractor splits on them.
func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
