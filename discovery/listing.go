package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
	"github.com/pevans/gamingnews/scraper"
)

// PageSource yields the articles of one listing page. An empty result means
// the page could not be read or held nothing usable; it is not proof that
// the listing ended.
type PageSource interface {
	FetchPage(ctx context.Context, page int) []newsfeed.NewsItem
}

// PageURL returns the URL of a listing page. Page 1 is the listing itself;
// page N is "<newsURL>/<N>".
func PageURL(newsURL string, page int) string {
	if page <= 1 {
		return newsURL
	}
	return fmt.Sprintf("%s/%d", strings.TrimSuffix(newsURL, "/"), page)
}

// ListingCrawler reads listing pages.
type ListingCrawler struct {
	fetcher   *Fetcher
	extractor *scraper.Extractor
	newsURL   string
	log       logger.Logger
}

// NewListingCrawler creates a crawler for the listing at newsURL.
func NewListingCrawler(fetcher *Fetcher, extractor *scraper.Extractor, newsURL string, log logger.Logger) *ListingCrawler {
	return &ListingCrawler{
		fetcher:   fetcher,
		extractor: extractor,
		newsURL:   newsURL,
		log:       logger.OrNop(log),
	}
}

// FetchPage fetches one listing page and extracts its articles. Failures
// are logged and yield no articles.
func (c *ListingCrawler) FetchPage(ctx context.Context, page int) []newsfeed.NewsItem {
	pageURL := PageURL(c.newsURL, page)
	c.log.Info("Fetching news", logger.String("url", pageURL), logger.Int("page", page))

	doc, _, err := c.fetcher.FetchDocument(ctx, pageURL, fmt.Sprintf("debug_page_%d.html", page))
	if err != nil {
		c.log.Error("Failed to fetch listing page", logger.String("url", pageURL), logger.Err(err))
		return nil
	}

	items := c.extractor.ExtractAll(doc)
	c.log.Info("Listing page processed", logger.Int("page", page), logger.Int("count", len(items)))

	return items
}
