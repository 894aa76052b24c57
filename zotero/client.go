// Package zotero is a minimal client for the parts of the Zotero web API the
// generator consumes: group and collection lookup, item listing with type and
// tag filters, and attachment downloads.
package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/phtj/webtero/config"
)

const (
	apiVersion = "3"
	pageLimit  = 100
)

// Client talks to the Zotero web API on behalf of one user.
type Client struct {
	base   string
	userID string
	key    string
	hc     *http.Client
	log    *zap.Logger

	// groups are stable for the lifetime of one program run
	groupCache map[string]*Group
}

// NewClient validates credentials presence and returns a ready to use client.
func NewClient(cfg *config.ZoteroConfig, log *zap.Logger) (*Client, error) {
	if len(cfg.UserID) == 0 {
		return nil, fmt.Errorf("zotero user id is not configured")
	}
	if len(cfg.APIKey) == 0 {
		return nil, fmt.Errorf("zotero api key is not configured")
	}
	return &Client{
		base:       strings.TrimRight(cfg.APIBase, "/"),
		userID:     cfg.UserID,
		key:        string(cfg.APIKey),
		hc:         &http.Client{Timeout: cfg.RequestTimeout()},
		log:        log,
		groupCache: make(map[string]*Group),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, http.Header, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("api call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("api call %s: reading body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("api call %s: unexpected status %s", path, resp.Status)
	}
	return body, resp.Header, nil
}

// getPaged repeatedly requests path shifting the start offset until the
// server runs out of results, concatenating decoded pages with collect.
func (c *Client) getPaged(ctx context.Context, path string, query url.Values, collect func([]byte) (int, error)) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(pageLimit))

	for start := 0; ; {
		query.Set("start", strconv.Itoa(start))
		body, _, err := c.get(ctx, path, query)
		if err != nil {
			return err
		}
		n, err := collect(body)
		if err != nil {
			return err
		}
		if n < pageLimit {
			return nil
		}
		start += n
	}
}

// Group is a handle to one Zotero group library.
type Group struct {
	c    *Client
	ID   string
	Name string
}

// GroupByName resolves a group the user belongs to by its visible name.
func (c *Client) GroupByName(ctx context.Context, name string) (*Group, error) {
	if g, ok := c.groupCache[name]; ok {
		return g, nil
	}

	body, _, err := c.get(ctx, "/users/"+c.userID+"/groups", nil)
	if err != nil {
		return nil, err
	}
	var groups []groupEnvelope
	if err := json.Unmarshal(body, &groups); err != nil {
		return nil, fmt.Errorf("unable to decode group list: %w", err)
	}
	for _, g := range groups {
		if g.Data.Name == name {
			grp := &Group{c: c, ID: strconv.FormatInt(g.ID, 10), Name: name}
			c.groupCache[name] = grp
			return grp, nil
		}
	}
	return nil, fmt.Errorf("group %q not found", name)
}

func (g *Group) path(suffix string) string {
	return "/groups/" + g.ID + suffix
}

// Collections returns all collections of the group, top level and nested.
func (g *Group) Collections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	err := g.c.getPaged(ctx, g.path("/collections"), nil, func(body []byte) (int, error) {
		var envelopes []collectionEnvelope
		if err := json.Unmarshal(body, &envelopes); err != nil {
			return 0, fmt.Errorf("unable to decode collection list: %w", err)
		}
		for _, e := range envelopes {
			col := Collection{Key: e.Key, Name: e.Data.Name}
			if parent, ok := e.Data.ParentCollection.(string); ok {
				col.ParentKey = parent
			}
			out = append(out, col)
		}
		return len(envelopes), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CollectionByName finds a collection by name anywhere in the group.
func (g *Group) CollectionByName(ctx context.Context, name string) (*Collection, error) {
	cols, err := g.Collections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		if cols[i].Name == name {
			return &cols[i], nil
		}
	}
	return nil, fmt.Errorf("collection %q not found in group %q", name, g.Name)
}

// SubCollections returns direct children of the given collection.
func (g *Group) SubCollections(ctx context.Context, col *Collection) ([]Collection, error) {
	var out []Collection
	err := g.c.getPaged(ctx, g.path("/collections/"+col.Key+"/collections"), nil, func(body []byte) (int, error) {
		var envelopes []collectionEnvelope
		if err := json.Unmarshal(body, &envelopes); err != nil {
			return 0, fmt.Errorf("unable to decode collection list: %w", err)
		}
		for _, e := range envelopes {
			out = append(out, Collection{Key: e.Key, Name: e.Data.Name, ParentKey: col.Key})
		}
		return len(envelopes), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Items lists records of the collection. itemType and tag filters are applied
// server side when not empty. Malformed records are dropped with a warning,
// the listing itself only fails on transport or decode errors.
func (g *Group) Items(ctx context.Context, col *Collection, itemType, tag string) ([]Record, error) {
	query := url.Values{}
	if len(itemType) > 0 {
		query.Set("itemType", itemType)
	}
	if len(tag) > 0 {
		query.Set("tag", tag)
	}

	var out []Record
	err := g.c.getPaged(ctx, g.path("/collections/"+col.Key+"/items"), query, func(body []byte) (int, error) {
		var envelopes []itemEnvelope
		if err := json.Unmarshal(body, &envelopes); err != nil {
			return 0, fmt.Errorf("unable to decode item list: %w", err)
		}
		records, errs := parseItems(body)
		for _, e := range errs {
			g.c.log.Warn("Skipping malformed item", zap.String("group", g.Name), zap.String("collection", col.Name), zap.Error(e))
		}
		out = append(out, records...)
		return len(envelopes), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Children lists child records (notes and attachments) of one item.
func (g *Group) Children(ctx context.Context, itemKey string) ([]Record, error) {
	body, _, err := g.c.get(ctx, g.path("/items/"+itemKey+"/children"), nil)
	if err != nil {
		return nil, err
	}
	records, errs := parseItems(body)
	for _, e := range errs {
		g.c.log.Warn("Skipping malformed child item", zap.String("parent", itemKey), zap.Error(e))
	}
	return records, nil
}

// AttachmentBytes downloads stored file content of an attachment item.
func (g *Group) AttachmentBytes(ctx context.Context, itemKey string) ([]byte, error) {
	body, _, err := g.c.get(ctx, g.path("/items/"+itemKey+"/file"), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch attachment %s: %w", itemKey, err)
	}
	return body, nil
}

// QueryItems resolves "group/collection" style references used by embedded
// directives and lists the matching records.
func (c *Client) QueryItems(ctx context.Context, group, collection, itemType, tag string) ([]Record, error) {
	g, err := c.GroupByName(ctx, group)
	if err != nil {
		return nil, err
	}
	col, err := g.CollectionByName(ctx, collection)
	if err != nil {
		return nil, err
	}
	return g.Items(ctx, col, itemType, tag)
}
