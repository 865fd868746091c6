// Package news fetches the club news feed and normalizes it into a
// short ordered list of items.
package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one feed entry. ID is the feed guid, falling back to the
// link, and is what the seen-set dedupes on.
type Item struct {
	ID    string
	Title string
	Link  string
}

type Client struct {
	feedURL string
	limit   int
	parser  *gofeed.Parser
}

func NewClient(feedURL string, limit int, timeout time.Duration, userAgent string) *Client {
	if limit <= 0 {
		limit = 3
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &Client{
		feedURL: feedURL,
		limit:   limit,
		parser:  parser,
	}
}

// Latest downloads and parses the feed, returning up to the configured
// number of items in feed order. Entries missing a title or link are
// skipped.
func (c *Client) Latest(ctx context.Context) ([]Item, error) {
	feed, err := c.parser.ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", c.feedURL, err)
	}

	items := make([]Item, 0, c.limit)
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}
		id := strings.TrimSpace(entry.GUID)
		if id == "" {
			id = link
		}
		items = append(items, Item{ID: id, Title: title, Link: link})
		if len(items) >= c.limit {
			break
		}
	}
	return items, nil
}
