package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type pageListEntry struct {
	Title string `json:"title"`
}

// AllPages lists every page title in a namespace, following continuation
// tokens until exhausted.
func (c *Client) AllPages(ctx context.Context, namespaceID int) ([]string, error) {
	var out []string
	cont := ""
	for {
		params := url.Values{
			"action":      {"query"},
			"list":        {"allpages"},
			"apnamespace": {strconv.Itoa(namespaceID)},
			"aplimit":     {listLimit},
		}
		if cont != "" {
			params.Set("apcontinue", cont)
		}
		env, err := c.do(ctx, params, false)
		if err != nil {
			return nil, err
		}
		var q struct {
			AllPages []pageListEntry `json:"allpages"`
		}
		if err := json.Unmarshal(env.Query, &q); err != nil {
			return nil, fmt.Errorf("mediawiki: decode allpages: %w", err)
		}
		for _, p := range q.AllPages {
			out = append(out, p.Title)
		}
		cont = env.Continue["apcontinue"]
		if cont == "" {
			return out, nil
		}
	}
}

// CategoryMembers lists the member titles of a category. The category may
// be given with or without the Category: prefix.
func (c *Client) CategoryMembers(ctx context.Context, category string) ([]string, error) {
	if !strings.HasPrefix(category, "Category:") {
		category = "Category:" + category
	}
	var out []string
	cont := ""
	for {
		params := url.Values{
			"action":  {"query"},
			"list":    {"categorymembers"},
			"cmtitle": {category},
			"cmlimit": {listLimit},
		}
		if cont != "" {
			params.Set("cmcontinue", cont)
		}
		env, err := c.do(ctx, params, false)
		if err != nil {
			return nil, err
		}
		var q struct {
			CategoryMembers []pageListEntry `json:"categorymembers"`
		}
		if err := json.Unmarshal(env.Query, &q); err != nil {
			return nil, fmt.Errorf("mediawiki: decode categorymembers: %w", err)
		}
		for _, p := range q.CategoryMembers {
			out = append(out, p.Title)
		}
		cont = env.Continue["cmcontinue"]
		if cont == "" {
			return out, nil
		}
	}
}

// RecentChanges returns the distinct titles changed since the given UTC
// timestamp, restricted to the namespaces.
func (c *Client) RecentChanges(ctx context.Context, since string, namespaceIDs []int) ([]string, error) {
	nss := make([]string, len(namespaceIDs))
	for i, id := range namespaceIDs {
		nss[i] = strconv.Itoa(id)
	}
	seen := make(map[string]struct{})
	var out []string
	cont := ""
	for {
		params := url.Values{
			"action":  {"query"},
			"list":    {"recentchanges"},
			"rcprop":  {"title|timestamp"},
			"rclimit": {listLimit},
			// The listing runs newest-first; rcend is the older bound.
			"rcend": {since},
		}
		if len(nss) > 0 {
			params.Set("rcnamespace", strings.Join(nss, "|"))
		}
		if cont != "" {
			params.Set("rccontinue", cont)
		}
		env, err := c.do(ctx, params, false)
		if err != nil {
			return nil, err
		}
		var q struct {
			RecentChanges []pageListEntry `json:"recentchanges"`
		}
		if err := json.Unmarshal(env.Query, &q); err != nil {
			return nil, fmt.Errorf("mediawiki: decode recentchanges: %w", err)
		}
		for _, rc := range q.RecentChanges {
			if _, ok := seen[rc.Title]; ok {
				continue
			}
			seen[rc.Title] = struct{}{}
			out = append(out, rc.Title)
		}
		cont = env.Continue["rccontinue"]
		if cont == "" {
			return out, nil
		}
	}
}

type revisionPage struct {
	PageID    int64  `json:"pageid"`
	Title     string `json:"title"`
	Missing   bool   `json:"missing"`
	Redirect  bool   `json:"redirect"`
	Revisions []struct {
		RevID     int64  `json:"revid"`
		Timestamp string `json:"timestamp"`
		Slots     struct {
			Main struct {
				Content string `json:"content"`
			} `json:"main"`
		} `json:"slots"`
	} `json:"revisions"`
}

// PageContents fetches the latest revision of each title, in batches of 50.
// Missing pages come back with Missing set rather than an error.
func (c *Client) PageContents(ctx context.Context, titles []string) ([]PageRevision, error) {
	var out []PageRevision
	for start := 0; start < len(titles); start += batchSize {
		end := min(start+batchSize, len(titles))
		params := url.Values{
			"action":  {"query"},
			"prop":    {"revisions"},
			"rvprop":  {"content|timestamp|ids"},
			"rvslots": {"main"},
			"titles":  {strings.Join(titles[start:end], "|")},
		}
		env, err := c.do(ctx, params, false)
		if err != nil {
			return nil, err
		}
		var q struct {
			Pages []revisionPage `json:"pages"`
		}
		if err := json.Unmarshal(env.Query, &q); err != nil {
			return nil, fmt.Errorf("mediawiki: decode revisions: %w", err)
		}
		for _, p := range q.Pages {
			rev := PageRevision{
				Title:    p.Title,
				PageID:   p.PageID,
				Missing:  p.Missing,
				Redirect: p.Redirect,
			}
			if len(p.Revisions) > 0 {
				rev.RevID = p.Revisions[0].RevID
				rev.Timestamp = p.Revisions[0].Timestamp
				rev.Content = p.Revisions[0].Slots.Main.Content
			}
			out = append(out, rev)
		}
	}
	return out, nil
}

// Search runs the remote full-text search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(limit)},
	}
	env, err := c.do(ctx, params, false)
	if err != nil {
		return nil, err
	}
	var q struct {
		Search []SearchHit `json:"search"`
	}
	if err := json.Unmarshal(env.Query, &q); err != nil {
		return nil, fmt.Errorf("mediawiki: decode search: %w", err)
	}
	return q.Search, nil
}
