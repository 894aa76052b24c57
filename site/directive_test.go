package site

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/phtj/webtero/zotero"
)

// fakeSource serves canned records and remembers the last query.
type fakeSource struct {
	records []zotero.Record
	err     error

	group, collection, itemType, tag string
}

func (s *fakeSource) QueryItems(ctx context.Context, group, collection, itemType, tag string) ([]zotero.Record, error) {
	s.group, s.collection, s.itemType, s.tag = group, collection, itemType, tag
	return s.records, s.err
}

func conference(key, title string, year int) *zotero.ConferencePaper {
	return &zotero.ConferencePaper{
		Paper: zotero.Paper{
			Key:      key,
			Title:    title,
			Year:     year,
			Pages:    "1-10",
			Abstract: "about " + title,
			Authors:  []zotero.Author{{FirstName: "Ada", LastName: "Lovelace"}},
		},
		Conference: "Proceedings of Testing",
	}
}

const conferenceDirective = `
group: Lab Websites
collection: Publications
item_type: conferencePaper
style: conference_paper
`

func TestParseDirective(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		q, err := ParseDirective(conferenceDirective + "tag: featured\n")
		if err != nil {
			t.Fatalf("ParseDirective() error = %v", err)
		}
		want := DirectiveQuery{
			Group:      "Lab Websites",
			Collection: "Publications",
			ItemType:   "conferencePaper",
			Style:      "conference_paper",
			Tag:        "featured",
		}
		if *q != want {
			t.Errorf("ParseDirective() = %+v, want %+v", *q, want)
		}
	})

	t.Run("tag is optional", func(t *testing.T) {
		if _, err := ParseDirective(conferenceDirective); err != nil {
			t.Errorf("ParseDirective() error = %v", err)
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		_, err := ParseDirective("group: G\nstyle: conference_paper\n")
		if err == nil || !strings.Contains(err.Error(), "collection") || !strings.Contains(err.Error(), "item_type") {
			t.Errorf("ParseDirective() error = %v, want missing field names", err)
		}
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		if _, err := ParseDirective(conferenceDirective + "colection: typo\n"); err == nil {
			t.Error("ParseDirective() accepted unknown key")
		}
	})

	t.Run("not yaml", func(t *testing.T) {
		if _, err := ParseDirective("def items():\n  return 42\n"); err == nil {
			t.Error("ParseDirective() accepted code-like block")
		}
	})
}

func TestEvaluateOrdersByYearDescending(t *testing.T) {
	src := &fakeSource{records: []zotero.Record{
		conference("KEY2018", "Older Work", 2018),
		conference("KEY2020", "Newer Work", 2020),
	}}
	ev := &DirectiveEvaluator{Source: src}
	diag := NewDiagnostics(zap.NewNop())

	out, err := ev.Evaluate(context.Background(), conferenceDirective, diag)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !strings.Contains(out, `<ul class="publication-list">`) {
		t.Errorf("output is not wrapped in publication list:\n%s", out)
	}
	newer := strings.Index(out, "Newer Work")
	older := strings.Index(out, "Older Work")
	if newer < 0 || older < 0 {
		t.Fatalf("output is missing items:\n%s", out)
	}
	if newer > older {
		t.Errorf("2020 item renders after 2018 item:\n%s", out)
	}
	if src.group != "Lab Websites" || src.collection != "Publications" || src.itemType != "conferencePaper" {
		t.Errorf("query was (%s, %s, %s), directive fields not passed through", src.group, src.collection, src.itemType)
	}
}

func TestEvaluateUnknownStyle(t *testing.T) {
	ev := &DirectiveEvaluator{Source: &fakeSource{}}
	diag := NewDiagnostics(zap.NewNop())

	_, err := ev.Evaluate(context.Background(), strings.Replace(conferenceDirective, "conference_paper", "fancy_style", 1), diag)
	if err == nil || !strings.Contains(err.Error(), "fancy_style") {
		t.Errorf("Evaluate() error = %v, want unknown style error", err)
	}
}

func TestEvaluateQueryFailure(t *testing.T) {
	ev := &DirectiveEvaluator{Source: &fakeSource{err: errors.New("api down")}}
	diag := NewDiagnostics(zap.NewNop())

	if _, err := ev.Evaluate(context.Background(), conferenceDirective, diag); err == nil {
		t.Error("Evaluate() expected error on query failure")
	}
}

func TestEvaluateSkipsUnformattableItems(t *testing.T) {
	src := &fakeSource{records: []zotero.Record{
		conference("GOOD", "Good Work", 2020),
		&zotero.JournalPaper{Paper: zotero.Paper{Key: "WRONG", Title: "Wrong Kind", Year: 2021}},
	}}
	ev := &DirectiveEvaluator{Source: src}
	diag := NewDiagnostics(zap.NewNop())

	out, err := ev.Evaluate(context.Background(), conferenceDirective, diag)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !strings.Contains(out, "Good Work") {
		t.Errorf("valid item missing from output:\n%s", out)
	}
	if strings.Contains(out, "Wrong Kind") {
		t.Errorf("mismatched item leaked into output:\n%s", out)
	}
	if got := diag.Count(DirectiveFailure); got != 1 {
		t.Errorf("recorded %d directive failures, want 1", got)
	}
}
