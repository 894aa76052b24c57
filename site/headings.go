package site

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// TOCEntry mirrors one indexed heading for navigation rendering.
type TOCEntry struct {
	Level    int // 1..6
	Label    string
	AnchorID string
}

// HeadingIndexer assigns stable anchor ids to headings and produces the
// table-of-contents model for one fragment.
type HeadingIndexer struct {
	// Prefix keeps anchors unique across fragments on one page, e.g. the tab
	// anchor. Ids follow "<prefix>_<n>" with n starting at 0 in document
	// order.
	Prefix string
}

// Index walks h1..h6 elements in document order, sets their id attribute and
// returns TOC entries. A heading with empty text still gets an anchor and an
// empty label.
func (hi *HeadingIndexer) Index(root *etree.Element) []TOCEntry {
	var entries []TOCEntry
	walkElements(root, func(e *etree.Element) {
		level, ok := headingLevel(e.Tag)
		if !ok {
			return
		}
		anchor := fmt.Sprintf("%s_%d", hi.Prefix, len(entries))
		e.CreateAttr("id", anchor)
		entries = append(entries, TOCEntry{
			Level:    level,
			Label:    strings.TrimSpace(textContent(e)),
			AnchorID: anchor,
		})
	})
	return entries
}

// RenderTOC produces the navigation fragment: a div.toc holding a "Contents"
// link to the page top and one list item per heading, classed by level so the
// stylesheet can indent them.
func RenderTOC(entries []TOCEntry) (string, error) {
	doc := etree.NewDocument()

	div := doc.CreateElement("div")
	div.CreateAttr("class", "toc")

	h2 := div.CreateElement("h2")
	top := h2.CreateElement("a")
	top.CreateAttr("href", "#top")
	top.SetText("Contents")

	ul := div.CreateElement("ul")
	for _, e := range entries {
		li := ul.CreateElement("li")
		li.CreateAttr("class", fmt.Sprintf("h%d", e.Level))
		a := li.CreateElement("a")
		a.CreateAttr("href", "#"+e.AnchorID)
		a.SetText(e.Label)
	}
	return doc.WriteToString()
}

func headingLevel(tag string) (int, bool) {
	if len(tag) != 2 || (tag[0] != 'h' && tag[0] != 'H') {
		return 0, false
	}
	if tag[1] < '1' || tag[1] > '6' {
		return 0, false
	}
	return int(tag[1] - '0'), true
}

// walkElements visits elements depth first in document order, root excluded.
func walkElements(root *etree.Element, visit func(*etree.Element)) {
	for _, child := range root.ChildElements() {
		visit(child)
		walkElements(child, visit)
	}
}

// textContent concatenates all character data below the element.
func textContent(e *etree.Element) string {
	var b strings.Builder
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			b.WriteString(textContent(t))
		}
	}
	return b.String()
}
