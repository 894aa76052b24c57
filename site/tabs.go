package site

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// TabRecord is one raw tab before validation: the naming-convention label
// and the fragments collected for it, in repository order.
type TabRecord struct {
	Label     string
	Fragments []*Fragment
}

// Tab is one navigable section of the page.
type Tab struct {
	SortKey   int
	Name      string
	AnchorID  string
	Fragments []*Fragment
}

// ParseTabLabel splits the "<int>_<name>" naming convention. Anything else
// is a hard error for that tab - a tab that cannot be ordered is excluded
// from the page rather than silently defaulted.
func ParseTabLabel(label string) (int, string, error) {
	parts := strings.Split(label, "_")
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("tab label %q does not follow the <int>_<name> convention", label)
	}
	key, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("tab label %q has non-numeric sort key: %w", label, err)
	}
	return key, parts[1], nil
}

// Primary selects the fragment representing the tab: the only one when there
// is one, otherwise the first fragment carrying mainTag, otherwise the first
// fragment in original order (recorded as a fallback).
func (t *Tab) Primary(mainTag string, diag *Diagnostics) *Fragment {
	if len(t.Fragments) == 0 {
		return nil
	}
	if len(t.Fragments) == 1 {
		return t.Fragments[0]
	}
	for _, f := range t.Fragments {
		if f.HasTag(mainTag) {
			return f
		}
	}
	diag.Add(ParseFailure, t.Name,
		fmt.Sprintf("%d fragments, none tagged %q, falling back to the first one", len(t.Fragments), mainTag), nil)
	return t.Fragments[0]
}

// AssembleTabs validates and orders raw tab records. Tabs with unparseable
// labels are dropped with a diagnostic, the rest are sorted ascending by
// sort key with input order preserved on ties.
func AssembleTabs(records []TabRecord, diag *Diagnostics) []*Tab {
	tabs := make([]*Tab, 0, len(records))
	for _, rec := range records {
		key, name, err := ParseTabLabel(rec.Label)
		if err != nil {
			diag.Add(TabSortKeyFailure, rec.Label, "tab dropped", err)
			continue
		}
		tabs = append(tabs, &Tab{
			SortKey:   key,
			Name:      name,
			AnchorID:  slug.Make(name),
			Fragments: rec.Fragments,
		})
	}
	sort.SliceStable(tabs, func(i, j int) bool { return tabs[i].SortKey < tabs[j].SortKey })
	return tabs
}
