// Package playstore talks to a google-play-scraper style HTTP service.
package playstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bank_reviews/internal/adapters/httpclient"
)

const pageSize = 150

type Options struct {
	Lang    string
	Country string
	Sort    string // MOST_RELEVANT | NEWEST | RATING
	RPS     int
}

type Client struct {
	base string
	opts Options
	http *httpclient.Client
}

func New(base string, opts Options) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("scraper base URL is required")
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	if opts.Sort == "" {
		opts.Sort = "MOST_RELEVANT"
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		opts: opts,
		http: httpclient.New("playstore", opts.RPS, 30*time.Second),
	}, nil
}

type appInfo struct {
	Title string `json:"title"`
}

// reviewsPage accepts both {"data": [...]} and {"reviews": [...]} bodies.
type reviewsPage struct {
	Data    []map[string]any `json:"data"`
	Reviews []map[string]any `json:"reviews"`
	Next    string           `json:"nextPaginationToken"`
	Token   string           `json:"continuation_token"`
}

func (p reviewsPage) items() []map[string]any {
	if len(p.Data) > 0 {
		return p.Data
	}
	return p.Reviews
}

func (p reviewsPage) next() string {
	if p.Next != "" {
		return p.Next
	}
	return p.Token
}

func (c *Client) AppTitle(ctx context.Context, appID string) (string, error) {
	q := c.query()
	var out appInfo
	u := fmt.Sprintf("%s/apps/%s?%s", c.base, url.PathEscape(appID), q.Encode())
	if err := c.http.GetJSON(ctx, "app", u, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}

// FetchReviews pages through the reviews endpoint until count reviews were
// collected or the service stops returning a continuation token.
func (c *Client) FetchReviews(ctx context.Context, appID string, count int) ([]map[string]any, error) {
	out := make([]map[string]any, 0, count)
	token := ""
	for len(out) < count {
		q := c.query()
		q.Set("sort", c.opts.Sort)
		q.Set("num", strconv.Itoa(min(pageSize, count-len(out))))
		q.Set("paginate", "true")
		if token != "" {
			q.Set("nextPaginationToken", token)
		}
		var page reviewsPage
		u := fmt.Sprintf("%s/apps/%s/reviews?%s", c.base, url.PathEscape(appID), q.Encode())
		if err := c.http.GetJSON(ctx, "reviews", u, &page); err != nil {
			return nil, err
		}
		items := page.items()
		if len(items) == 0 {
			break
		}
		out = append(out, items...)
		token = page.next()
		if token == "" {
			break
		}
	}
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (c *Client) query() url.Values {
	q := url.Values{}
	q.Set("lang", c.opts.Lang)
	if c.opts.Country != "" {
		q.Set("country", c.opts.Country)
	}
	return q
}
