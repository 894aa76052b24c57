package zotero

import (
	"testing"
)

func TestYearOf(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2020", 2020},
		{"March 2018", 2018},
		{"2019-05-12", 0}, // trailing digits are not a year here
		{"12/05/2021", 2021},
		{"", 0},
		{"n.d.", 0},
		{"99", 0},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := yearOf(tt.date); got != tt.want {
				t.Errorf("yearOf(%q) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

func TestParseItemVariants(t *testing.T) {
	t.Run("note", func(t *testing.T) {
		rec, err := parseItem(&itemData{Key: "N1", ItemType: "note", Note: "<p>x</p>"})
		if err != nil {
			t.Fatalf("parseItem() error = %v", err)
		}
		n, ok := rec.(*Note)
		if !ok || n.HTML != "<p>x</p>" {
			t.Errorf("parseItem() = %+v, want note with content", rec)
		}
	})

	t.Run("note without content", func(t *testing.T) {
		if _, err := parseItem(&itemData{Key: "N2", ItemType: "note"}); err == nil {
			t.Error("parseItem() accepted empty note")
		}
	})

	t.Run("attachment falls back to filename", func(t *testing.T) {
		rec, err := parseItem(&itemData{Key: "A1", ItemType: "attachment", Filename: "photo.jpg", ContentType: "image/jpeg"})
		if err != nil {
			t.Fatalf("parseItem() error = %v", err)
		}
		a := rec.(*Attachment)
		if a.Title != "photo.jpg" {
			t.Errorf("title = %q, want filename fallback", a.Title)
		}
		if !a.IsImage() || a.IsHTML() {
			t.Error("content type classification wrong")
		}
	})

	t.Run("attachment without any name", func(t *testing.T) {
		if _, err := parseItem(&itemData{Key: "A2", ItemType: "attachment"}); err == nil {
			t.Error("parseItem() accepted nameless attachment")
		}
	})

	t.Run("conference paper", func(t *testing.T) {
		rec, err := parseItem(&itemData{
			Key:              "C1",
			ItemType:         "conferencePaper",
			Title:            "Work",
			Date:             "June 2019",
			Pages:            "1-9",
			ProceedingsTitle: "Proc. Testing",
			Creators: []struct {
				CreatorType string `json:"creatorType"`
				FirstName   string `json:"firstName"`
				LastName    string `json:"lastName"`
			}{
				{CreatorType: "author", FirstName: "Ada", LastName: "Lovelace"},
				{CreatorType: "author", LastName: "Institutional"},
			},
		})
		if err != nil {
			t.Fatalf("parseItem() error = %v", err)
		}
		cp := rec.(*ConferencePaper)
		if cp.Year != 2019 || cp.Conference != "Proc. Testing" {
			t.Errorf("parseItem() = %+v", cp)
		}
		// creators without both names are dropped
		if len(cp.Authors) != 1 {
			t.Errorf("authors = %+v, want single author", cp.Authors)
		}
	})

	t.Run("paper without title", func(t *testing.T) {
		if _, err := parseItem(&itemData{Key: "C2", ItemType: "journalArticle"}); err == nil {
			t.Error("parseItem() accepted untitled paper")
		}
	})

	t.Run("document", func(t *testing.T) {
		rec, err := parseItem(&itemData{Key: "D1", ItemType: "document", Title: "Head"})
		if err != nil {
			t.Fatalf("parseItem() error = %v", err)
		}
		if d := rec.(*Document); d.Title != "Head" {
			t.Errorf("parseItem() = %+v", d)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := parseItem(&itemData{Key: "B1", ItemType: "book", Title: "Some Book"})
		if _, ok := err.(*ErrUnsupportedItemType); !ok {
			t.Errorf("parseItem() error = %v, want ErrUnsupportedItemType", err)
		}
	})
}

func TestParseItems(t *testing.T) {
	payload := []byte(`[
		{"key": "N1", "data": {"key": "N1", "itemType": "note", "note": "<p>x</p>", "tags": [{"tag": "main-text"}]}},
		{"key": "B1", "data": {"key": "B1", "itemType": "book", "title": "Dropped Silently"}},
		{"key": "N2", "data": {"key": "N2", "itemType": "note"}},
		{"key": "J1", "data": {"key": "J1", "itemType": "journalArticle", "title": "Kept", "date": "2020", "publicationTitle": "J", "volume": "1", "issue": "2"}}
	]`)

	records, errs := parseItems(payload)

	// unsupported types vanish, malformed supported types surface as errors
	if len(records) != 2 {
		t.Fatalf("parseItems() returned %d records, want 2: %+v", len(records), records)
	}
	if len(errs) != 1 {
		t.Fatalf("parseItems() returned %d errors, want 1: %v", len(errs), errs)
	}

	n := records[0].(*Note)
	if !n.RecordTags().Has("main-text") {
		t.Error("note tags lost")
	}
	j := records[1].(*JournalPaper)
	if j.Year != 2020 || j.Journal != "J" || j.Volume != "1" || j.Issue != "2" {
		t.Errorf("journal paper = %+v", j)
	}
}

func TestParseItemsBadPayload(t *testing.T) {
	if _, errs := parseItems([]byte("not json")); len(errs) == 0 {
		t.Error("parseItems() accepted malformed payload")
	}
}

func TestTagsHas(t *testing.T) {
	tags := Tags{"one", "two"}
	if !tags.Has("one") || !tags.Has("two") {
		t.Error("Has() misses present tags")
	}
	if tags.Has("three") {
		t.Error("Has() reports absent tag")
	}
	if (Tags{}).Has("any") {
		t.Error("Has() reports tag on empty set")
	}
}
