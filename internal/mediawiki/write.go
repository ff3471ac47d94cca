package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/wikisync/internal/apperr"
)

// Login authenticates the configured bot account. It must be called before
// Edit or Delete; the session rides on the client's cookie jar.
func (c *Client) Login(ctx context.Context) error {
	if !c.HasCredentials() {
		return apperr.ErrMissingCredentials
	}
	token, err := c.token(ctx, "login")
	if err != nil {
		return fmt.Errorf("mediawiki: fetch login token: %w", err)
	}

	params := url.Values{
		"action":     {"login"},
		"lgname":     {c.username},
		"lgpassword": {c.password},
		"lgtoken":    {token},
	}
	env, err := c.do(ctx, params, true)
	if err != nil {
		return fmt.Errorf("mediawiki: login: %w", err)
	}
	var login struct {
		Result string `json:"result"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(env.Login, &login); err != nil {
		return fmt.Errorf("mediawiki: decode login: %w", err)
	}
	if login.Result != "Success" {
		return fmt.Errorf("mediawiki: login failed: %s %s", login.Result, login.Reason)
	}
	return nil
}

// Timestamps fetches the current remote revision timestamp for each title.
// Titles missing on the remote are absent from the result map.
func (c *Client) Timestamps(ctx context.Context, titles []string) (map[string]string, error) {
	out := make(map[string]string, len(titles))
	for start := 0; start < len(titles); start += batchSize {
		end := min(start+batchSize, len(titles))
		params := url.Values{
			"action": {"query"},
			"prop":   {"revisions"},
			"rvprop": {"timestamp"},
			"titles": {strings.Join(titles[start:end], "|")},
		}
		env, err := c.do(ctx, params, false)
		if err != nil {
			return nil, err
		}
		var q struct {
			Pages []struct {
				Title     string `json:"title"`
				Missing   bool   `json:"missing"`
				Revisions []struct {
					Timestamp string `json:"timestamp"`
				} `json:"revisions"`
			} `json:"pages"`
		}
		if err := json.Unmarshal(env.Query, &q); err != nil {
			return nil, fmt.Errorf("mediawiki: decode timestamps: %w", err)
		}
		for _, p := range q.Pages {
			if p.Missing || len(p.Revisions) == 0 {
				continue
			}
			out[p.Title] = p.Revisions[0].Timestamp
		}
	}
	return out, nil
}

// Edit replaces the full text of a page.
func (c *Client) Edit(ctx context.Context, title, text, summary string) (*EditResult, error) {
	token, err := c.token(ctx, "csrf")
	if err != nil {
		return nil, fmt.Errorf("mediawiki: fetch csrf token: %w", err)
	}
	params := url.Values{
		"action":  {"edit"},
		"title":   {title},
		"text":    {text},
		"summary": {summary},
		"bot":     {"1"},
		"token":   {token},
	}
	env, err := c.do(ctx, params, true)
	if err != nil {
		return nil, err
	}
	var edit struct {
		Result       string `json:"result"`
		NewRevID     int64  `json:"newrevid"`
		NewTimestamp string `json:"newtimestamp"`
	}
	if err := json.Unmarshal(env.Edit, &edit); err != nil {
		return nil, fmt.Errorf("mediawiki: decode edit: %w", err)
	}
	if edit.Result != "Success" {
		return nil, fmt.Errorf("mediawiki: edit %s: result %s", title, edit.Result)
	}
	return &EditResult{RevID: edit.NewRevID, NewTimestamp: edit.NewTimestamp}, nil
}

// Delete removes a page. Deleting a page that is already gone is success:
// the desired end state holds either way.
func (c *Client) Delete(ctx context.Context, title, reason string) error {
	token, err := c.token(ctx, "csrf")
	if err != nil {
		return fmt.Errorf("mediawiki: fetch csrf token: %w", err)
	}
	params := url.Values{
		"action": {"delete"},
		"title":  {title},
		"reason": {reason},
		"token":  {token},
	}
	_, err = c.do(ctx, params, true)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "missingtitle" {
		return nil
	}
	return err
}

// token fetches a token of the given type (login or csrf).
func (c *Client) token(ctx context.Context, kind string) (string, error) {
	params := url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {kind},
	}
	env, err := c.do(ctx, params, false)
	if err != nil {
		return "", err
	}
	var q struct {
		Tokens map[string]string `json:"tokens"`
	}
	if err := json.Unmarshal(env.Query, &q); err != nil {
		return "", fmt.Errorf("mediawiki: decode tokens: %w", err)
	}
	token := q.Tokens[kind+"token"]
	if token == "" {
		return "", fmt.Errorf("mediawiki: empty %s token", kind)
	}
	return token, nil
}
