package site

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/phtj/webtero/zotero"
)

// DirectiveQuery is the declarative replacement for the executable blocks
// the original content format allowed. It is plain data interpreted against
// a closed formatter registry and is never evaluated as code.
type DirectiveQuery struct {
	Group      string `yaml:"group"`
	Collection string `yaml:"collection"`
	ItemType   string `yaml:"item_type"`
	Style      string `yaml:"style"`
	Tag        string `yaml:"tag"`
}

// ParseDirective decodes a directive block. Unknown keys are rejected so
// typos surface as diagnostics instead of silently changing the query.
func ParseDirective(text string) (*DirectiveQuery, error) {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(text)))
	dec.KnownFields(true)

	var q DirectiveQuery
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("malformed directive: %w", err)
	}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"group", q.Group},
		{"collection", q.Collection},
		{"item_type", q.ItemType},
		{"style", q.Style},
	} {
		if len(strings.TrimSpace(f.value)) == 0 {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("directive is missing required fields: %s", strings.Join(missing, ", "))
	}
	return &q, nil
}

// ItemSource is the slice of the repository client the evaluator needs.
type ItemSource interface {
	QueryItems(ctx context.Context, group, collection, itemType, tag string) ([]zotero.Record, error)
}

// DirectiveEvaluator turns directive blocks into rendered publication lists.
type DirectiveEvaluator struct {
	Source ItemSource
}

// Evaluate runs one directive and returns the replacement HTML. A returned
// error means the whole block failed (malformed directive, unknown style or
// query failure); individual item formatting failures only drop that item.
func (ev *DirectiveEvaluator) Evaluate(ctx context.Context, text string, diag *Diagnostics) (string, error) {
	q, err := ParseDirective(text)
	if err != nil {
		return "", err
	}

	formatter, ok := formatterRegistry[q.Style]
	if !ok {
		return "", fmt.Errorf("unrecognized directive style %q", q.Style)
	}

	records, err := ev.Source.QueryItems(ctx, q.Group, q.Collection, q.ItemType, q.Tag)
	if err != nil {
		return "", fmt.Errorf("directive query failed: %w", err)
	}

	type rendered struct {
		year int
		html string
	}
	items := make([]rendered, 0, len(records))
	for _, rec := range records {
		year, html, err := formatter.Format(rec)
		if err != nil {
			diag.Add(DirectiveFailure, rec.RecordKey(), "item skipped", err)
			continue
		}
		items = append(items, rendered{year: year, html: html})
	}

	// newest first, ties keep repository order
	sort.SliceStable(items, func(i, j int) bool { return items[i].year > items[j].year })

	var b strings.Builder
	b.WriteString(`<ul class="publication-list">` + "\n")
	for _, it := range items {
		b.WriteString(it.html)
	}
	b.WriteString("</ul>")
	return b.String(), nil
}
