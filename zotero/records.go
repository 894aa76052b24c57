package zotero

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is a closed set of item variants the generator understands. Raw API
// payloads are converted into one of the variants by parseItem with required
// fields checked at construction, so the rest of the pipeline never probes
// for field presence.
type Record interface {
	RecordKey() string
	RecordTags() Tags
}

// Tags is an unordered set of item tags.
type Tags []string

func (t Tags) Has(name string) bool {
	for _, tag := range t {
		if tag == name {
			return true
		}
	}
	return false
}

// Note is a standalone HTML note.
type Note struct {
	Key  string
	HTML string
	Tags Tags
}

func (n *Note) RecordKey() string { return n.Key }
func (n *Note) RecordTags() Tags  { return n.Tags }

// Attachment is a stored file, typically an image or an HTML template.
type Attachment struct {
	Key         string
	Title       string
	Filename    string
	ContentType string
	LinkMode    string
	Tags        Tags
}

func (a *Attachment) RecordKey() string { return a.Key }
func (a *Attachment) RecordTags() Tags  { return a.Tags }

// IsImage reports whether attachment content type declares an image.
func (a *Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// IsHTML reports whether attachment content type declares an HTML document.
func (a *Attachment) IsHTML() bool {
	return strings.HasPrefix(a.ContentType, "text/html")
}

// Document is a generic titled item. The generator uses it for structural
// items like the page head whose children carry the actual content.
type Document struct {
	Key   string
	Title string
	Tags  Tags
}

func (d *Document) RecordKey() string { return d.Key }
func (d *Document) RecordTags() Tags  { return d.Tags }

// Author is one creator of a paper or project.
type Author struct {
	FirstName string
	LastName  string
}

// Paper carries fields shared by all publication variants.
type Paper struct {
	Key      string
	Title    string
	Year     int
	Pages    string
	Abstract string
	Authors  []Author
	Tags     Tags
}

func (p *Paper) RecordKey() string { return p.Key }
func (p *Paper) RecordTags() Tags  { return p.Tags }

// ConferencePaper adds proceedings title.
type ConferencePaper struct {
	Paper
	Conference string
}

// JournalPaper adds journal title and volume/issue.
type JournalPaper struct {
	Paper
	Journal string
	Volume  string
	Issue   string
}

// ResearchProject is a report-type item describing a funded project.
type ResearchProject struct {
	Paper
	Institution string
}

// Collection describes one collection inside a group.
type Collection struct {
	Key       string
	Name      string
	ParentKey string
}

// itemData is the wire shape of the "data" object of one Zotero item. Only
// fields the generator consumes are listed, everything else is dropped on
// decode.
type itemData struct {
	Key              string `json:"key"`
	ItemType         string `json:"itemType"`
	Title            string `json:"title"`
	Note             string `json:"note"`
	Filename         string `json:"filename"`
	ContentType      string `json:"contentType"`
	LinkMode         string `json:"linkMode"`
	Date             string `json:"date"`
	Pages            string `json:"pages"`
	AbstractNote     string `json:"abstractNote"`
	ProceedingsTitle string `json:"proceedingsTitle"`
	PublicationTitle string `json:"publicationTitle"`
	Volume           string `json:"volume"`
	Issue            string `json:"issue"`
	Institution      string `json:"institution"`
	Creators         []struct {
		CreatorType string `json:"creatorType"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
	} `json:"creators"`
	Tags []struct {
		Tag string `json:"tag"`
	} `json:"tags"`
}

type itemEnvelope struct {
	Key  string   `json:"key"`
	Data itemData `json:"data"`
}

type collectionEnvelope struct {
	Key  string `json:"key"`
	Data struct {
		Name             string `json:"name"`
		ParentCollection any    `json:"parentCollection"` // string key or boolean false
	} `json:"data"`
}

type groupEnvelope struct {
	ID   int64 `json:"id"`
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

// ErrUnsupportedItemType marks item types outside of the closed variant set.
type ErrUnsupportedItemType struct {
	Key  string
	Type string
}

func (e *ErrUnsupportedItemType) Error() string {
	return fmt.Sprintf("item %s has unsupported type %q", e.Key, e.Type)
}

func (d *itemData) tags() Tags {
	if len(d.Tags) == 0 {
		return nil
	}
	out := make(Tags, 0, len(d.Tags))
	for _, t := range d.Tags {
		out = append(out, t.Tag)
	}
	return out
}

func (d *itemData) authors() []Author {
	var out []Author
	for _, c := range d.Creators {
		// entries without both names (e.g. institutional "name" creators) are
		// not representable in author lists and are skipped
		if c.FirstName == "" || c.LastName == "" {
			continue
		}
		out = append(out, Author{FirstName: c.FirstName, LastName: c.LastName})
	}
	return out
}

// yearOf extracts a publication year from a free-form Zotero date. The API
// does not guarantee any date format, but the year is always the trailing
// four digits when present.
func yearOf(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[len(date)-4:])
	if err != nil {
		return 0
	}
	return year
}

func (d *itemData) paper() (Paper, error) {
	if d.Title == "" {
		return Paper{}, fmt.Errorf("item %s: missing required field 'title'", d.Key)
	}
	return Paper{
		Key:      d.Key,
		Title:    d.Title,
		Year:     yearOf(d.Date),
		Pages:    d.Pages,
		Abstract: d.AbstractNote,
		Authors:  d.authors(),
		Tags:     d.tags(),
	}, nil
}

// parseItem validates one decoded item and returns the matching variant.
func parseItem(d *itemData) (Record, error) {
	if d.Key == "" {
		return nil, fmt.Errorf("item has no key")
	}
	switch d.ItemType {
	case "note":
		if d.Note == "" {
			return nil, fmt.Errorf("note %s: missing required field 'note'", d.Key)
		}
		return &Note{Key: d.Key, HTML: d.Note, Tags: d.tags()}, nil
	case "attachment":
		if d.Title == "" && d.Filename == "" {
			return nil, fmt.Errorf("attachment %s: missing both 'title' and 'filename'", d.Key)
		}
		title := d.Title
		if title == "" {
			title = d.Filename
		}
		return &Attachment{
			Key:         d.Key,
			Title:       title,
			Filename:    d.Filename,
			ContentType: d.ContentType,
			LinkMode:    d.LinkMode,
			Tags:        d.tags(),
		}, nil
	case "conferencePaper":
		p, err := d.paper()
		if err != nil {
			return nil, err
		}
		return &ConferencePaper{Paper: p, Conference: d.ProceedingsTitle}, nil
	case "journalArticle":
		p, err := d.paper()
		if err != nil {
			return nil, err
		}
		return &JournalPaper{Paper: p, Journal: d.PublicationTitle, Volume: d.Volume, Issue: d.Issue}, nil
	case "report":
		p, err := d.paper()
		if err != nil {
			return nil, err
		}
		return &ResearchProject{Paper: p, Institution: d.Institution}, nil
	case "document":
		if d.Title == "" {
			return nil, fmt.Errorf("document %s: missing required field 'title'", d.Key)
		}
		return &Document{Key: d.Key, Title: d.Title, Tags: d.tags()}, nil
	default:
		return nil, &ErrUnsupportedItemType{Key: d.Key, Type: d.ItemType}
	}
}

// parseItems decodes an API item list. Items with unsupported types are
// dropped (the library holds many item kinds the generator has no use for),
// malformed items of supported types are reported.
func parseItems(data []byte) ([]Record, []error) {
	var envelopes []itemEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, []error{fmt.Errorf("unable to decode item list: %w", err)}
	}

	var (
		records []Record
		errs    []error
	)
	for i := range envelopes {
		rec, err := parseItem(&envelopes[i].Data)
		if err != nil {
			var unsupported *ErrUnsupportedItemType
			if !errors.As(err, &unsupported) {
				errs = append(errs, err)
			}
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}
