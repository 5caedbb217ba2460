package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// MaxPageSize is the largest page the remote source serves. Search always
// requests full pages and follows pagination until a short page arrives.
const MaxPageSize = 1000

// Query describes one record-type search against the remote source.
type Query struct {
	// Type and Milestone are the source-system identifiers from the
	// record type configuration.
	Type      string
	Milestone string
	// Projects optionally narrows the search to specific source projects.
	Projects []string
	// Extra carries caller-supplied filter parameters, passed through
	// verbatim as query-string pairs.
	Extra map[string]string
}

// Client queries the remote compliance system through an injected Fetcher.
type Client struct {
	base    string
	fetcher Fetcher
}

// NewClient creates a source client rooted at base (no trailing slash).
func NewClient(base string, fetcher Fetcher) *Client {
	return &Client{base: base, fetcher: fetcher}
}

// Search fetches every item matching the query, following pagination
// until the source is exhausted. An empty result is not an error.
func (c *Client) Search(ctx context.Context, q Query) ([]Item, error) {
	var all []Item
	for page := 1; ; page++ {
		body, err := c.fetcher.Fetch(ctx, c.searchURL(q, page))
		if err != nil {
			return nil, err
		}
		var items []Item
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode search page %d: %w", page, err)
		}
		all = append(all, items...)
		if len(items) < MaxPageSize {
			return all, nil
		}
	}
}

// Project resolves a project reference to its full metadata.
func (c *Client) Project(ctx context.Context, projectID string) (*Project, error) {
	body, err := c.fetcher.Fetch(ctx, fmt.Sprintf("%s/projects/%s", c.base, url.PathEscape(projectID)))
	if err != nil {
		return nil, err
	}
	var project Project
	if err := json.Unmarshal(body, &project); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", projectID, err)
	}
	return &project, nil
}

// searchURL builds a deterministic query URL so tests and request logs
// are stable regardless of map iteration order.
func (c *Client) searchURL(q Query, page int) string {
	params := url.Values{}
	params.Set("recordType", q.Type)
	if q.Milestone != "" {
		params.Set("milestone", q.Milestone)
	}
	for _, project := range q.Projects {
		params.Add("project", project)
	}

	keys := make([]string, 0, len(q.Extra))
	for k := range q.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.Set(k, q.Extra[k])
	}

	params.Set("pageSize", strconv.Itoa(MaxPageSize))
	params.Set("pageNum", strconv.Itoa(page))
	return c.base + "/records?" + params.Encode()
}
