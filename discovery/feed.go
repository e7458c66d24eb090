package discovery

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
)

// FeedScanner reads articles from an RSS or Atom feed.
type FeedScanner struct {
	fetcher *Fetcher
	feedURL string
	log     logger.Logger
}

// NewFeedScanner creates a scanner for feedURL.
func NewFeedScanner(fetcher *Fetcher, feedURL string, log logger.Logger) *FeedScanner {
	return &FeedScanner{
		fetcher: fetcher,
		feedURL: feedURL,
		log:     logger.OrNop(log),
	}
}

// Scan fetches the feed and returns up to limit articles in feed order.
// The gofeed library detects and handles both RSS and Atom formats.
func (s *FeedScanner) Scan(ctx context.Context, limit int) ([]newsfeed.NewsItem, error) {
	raw, err := s.fetcher.Download(ctx, s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var items []newsfeed.NewsItem
	for _, fi := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		item, ok := FeedItemToNewsItem(fi)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	s.log.Info("Feed scan finished", logger.String("url", s.feedURL), logger.Int("count", len(items)))

	return items, nil
}

// FeedItemToNewsItem converts a feed entry. Entries without a title or link
// are rejected.
func FeedItemToNewsItem(fi *gofeed.Item) (newsfeed.NewsItem, bool) {
	if fi == nil {
		return newsfeed.NewsItem{}, false
	}

	title := strings.Join(strings.Fields(fi.Title), " ")
	link := strings.TrimSpace(fi.Link)
	if title == "" || link == "" {
		return newsfeed.NewsItem{}, false
	}

	// gofeed normalizes <description> (RSS) and <summary> (Atom) into
	// Description, which frequently carries markup.
	summary := plainText(fi.Description)
	if summary == "" {
		summary = newsfeed.NoSummary
	}

	item := newsfeed.NewNewsItem(title, summary, link)
	item.ImageURL = newsfeed.StringPtr(feedImage(fi))
	item.PublishedDate = newsfeed.StringPtr(strings.TrimSpace(fi.Published))

	switch {
	case fi.Author != nil && fi.Author.Name != "":
		item.Author = newsfeed.StringPtr(fi.Author.Name)
	case len(fi.Authors) > 0 && fi.Authors[0] != nil:
		item.Author = newsfeed.StringPtr(fi.Authors[0].Name)
	}

	return item, true
}

func feedImage(fi *gofeed.Item) string {
	if fi.Image != nil && fi.Image.URL != "" {
		return fi.Image.URL
	}
	for _, enc := range fi.Enclosures {
		if enc != nil && enc.URL != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
			return enc.URL
		}
	}
	return ""
}

func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
