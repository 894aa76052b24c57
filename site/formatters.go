package site

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/phtj/webtero/zotero"
)

// ItemFormatter renders one repository record as a publication list item and
// reports the year used for list ordering.
type ItemFormatter interface {
	Format(rec zotero.Record) (year int, rendered string, err error)
}

// formatterRegistry is the closed set of directive styles. Directives naming
// anything else are rejected during evaluation.
var formatterRegistry = map[string]ItemFormatter{
	"conference_paper": conferencePaperFormatter{},
	"journal_paper":    journalPaperFormatter{},
	"research_project": researchProjectFormatter{},
}

// FormatterStyles lists registered style names, for error messages and tests.
func FormatterStyles() []string {
	out := make([]string, 0, len(formatterRegistry))
	for name := range formatterRegistry {
		out = append(out, name)
	}
	return out
}

// formatAuthors renders "Last, FM" author lists: two authors joined by
// "and", longer lists separated by semicolons with "and" before the final
// name. First names collapse to initials.
func formatAuthors(authors []zotero.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		var initials strings.Builder
		for _, word := range strings.Fields(a.FirstName) {
			initials.WriteString(word[:1])
		}
		names = append(names, a.LastName+", "+initials.String())
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], "; ") + " and " + names[len(names)-1]
	}
}

func yearString(year int) string {
	if year == 0 {
		return "n.d."
	}
	return strconv.Itoa(year)
}

// listItem assembles the shared list entry shape: a toggle button revealing
// the abstract, the formatted citation line, and the abstract paragraph.
func listItem(p *zotero.Paper, citation string) string {
	var b strings.Builder
	b.WriteString("<li>")
	fmt.Fprintf(&b, "<button class='toggle' target='#%s'>+</button>", p.Key)
	b.WriteString("<p class='publication'>")
	b.WriteString(citation)
	b.WriteString("</p>\n")
	fmt.Fprintf(&b, "<p class='abstract' id='%s'>%s</p>", p.Key, html.EscapeString(p.Abstract))
	b.WriteString("</li>\n")
	return b.String()
}

func citationHead(p *zotero.Paper) string {
	return fmt.Sprintf("<pa>%s</pa> <py>(%s)</py> <pt>%s</pt>, ",
		html.EscapeString(formatAuthors(p.Authors)), yearString(p.Year), html.EscapeString(p.Title))
}

type conferencePaperFormatter struct{}

func (conferencePaperFormatter) Format(rec zotero.Record) (int, string, error) {
	cp, ok := rec.(*zotero.ConferencePaper)
	if !ok {
		return 0, "", fmt.Errorf("item %s is not a conference paper", rec.RecordKey())
	}
	citation := citationHead(&cp.Paper) +
		fmt.Sprintf("<pc>%s</pc>, <pp>pp. %s</pp>.", html.EscapeString(cp.Conference), html.EscapeString(cp.Pages))
	return cp.Year, listItem(&cp.Paper, citation), nil
}

type journalPaperFormatter struct{}

func (journalPaperFormatter) Format(rec zotero.Record) (int, string, error) {
	jp, ok := rec.(*zotero.JournalPaper)
	if !ok {
		return 0, "", fmt.Errorf("item %s is not a journal paper", rec.RecordKey())
	}
	citation := citationHead(&jp.Paper) +
		fmt.Sprintf("<pj>%s %s(%s)</pj>, <pp>pp. %s</pp>.",
			html.EscapeString(jp.Journal), html.EscapeString(jp.Volume), html.EscapeString(jp.Issue), html.EscapeString(jp.Pages))
	return jp.Year, listItem(&jp.Paper, citation), nil
}

type researchProjectFormatter struct{}

func (researchProjectFormatter) Format(rec zotero.Record) (int, string, error) {
	rp, ok := rec.(*zotero.ResearchProject)
	if !ok {
		return 0, "", fmt.Errorf("item %s is not a research project", rec.RecordKey())
	}
	citation := citationHead(&rp.Paper) + fmt.Sprintf("<pi>%s</pi>.", html.EscapeString(rp.Institution))
	return rp.Year, listItem(&rp.Paper, citation), nil
}
