package site

import (
	"context"
	"fmt"

	"github.com/phtj/webtero/zotero"
)

// FetchFunc retrieves remote attachment bytes.
type FetchFunc func(ctx context.Context) ([]byte, error)

// CatalogEntry is one remote image known to the build, with a lazy memoized
// byte fetch. Result and error are both remembered so a failing attachment is
// fetched at most once per build as well.
type CatalogEntry struct {
	Title string

	fetch   FetchFunc
	fetched bool
	data    []byte
	err     error
}

// Bytes downloads attachment content on first use.
func (e *CatalogEntry) Bytes(ctx context.Context) ([]byte, error) {
	if e.fetched {
		return e.data, e.err
	}
	e.fetched = true
	e.data, e.err = e.fetch(ctx)
	if e.err != nil {
		e.err = fmt.Errorf("fetch of %q failed: %w", e.Title, e.err)
	}
	return e.data, e.err
}

// Catalog indexes remote image attachments by canonical title. It is scoped
// to one page build.
type Catalog struct {
	entries map[string]*CatalogEntry
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]*CatalogEntry)}
}

// Add registers an image under the given title. First registration wins -
// the upstream library should not hold duplicate titles, and when it does the
// original tool used whichever attachment it saw first.
func (c *Catalog) Add(title string, fetch FetchFunc) {
	if len(title) == 0 {
		return
	}
	if _, exists := c.entries[title]; exists {
		return
	}
	c.entries[title] = &CatalogEntry{Title: title, fetch: fetch}
}

// AddAttachment registers a Zotero image attachment under both its title and
// its stored filename when they differ - notes may reference either.
func (c *Catalog) AddAttachment(att *zotero.Attachment, g *zotero.Group) {
	if !att.IsImage() {
		return
	}
	key := att.RecordKey()
	fetch := func(ctx context.Context) ([]byte, error) {
		return g.AttachmentBytes(ctx, key)
	}
	c.Add(att.Title, fetch)
	if att.Filename != att.Title {
		c.Add(att.Filename, fetch)
	}
}

// Lookup finds an entry by canonical title.
func (c *Catalog) Lookup(title string) (*CatalogEntry, bool) {
	e, ok := c.entries[title]
	return e, ok
}

// Len returns the number of distinct registered titles.
func (c *Catalog) Len() int {
	return len(c.entries)
}
