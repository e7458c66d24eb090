package discovery

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
	"github.com/pevans/gamingnews/scraper"
)

// MinHomepageTitle is the shortest link text accepted as a headline.
const MinHomepageTitle = 15

// homepageMarkers are the path fragments of article links.
var homepageMarkers = []string{"/noticia/", "/noticias/"}

// HomepageScanner collects article links straight from the site homepage.
// It is used when the listing yields nothing new.
type HomepageScanner struct {
	fetcher   *Fetcher
	extractor *scraper.Extractor
	homeURL   string
	log       logger.Logger
}

// NewHomepageScanner creates a scanner for the homepage at homeURL.
func NewHomepageScanner(fetcher *Fetcher, extractor *scraper.Extractor, homeURL string, log logger.Logger) *HomepageScanner {
	return &HomepageScanner{
		fetcher:   fetcher,
		extractor: extractor,
		homeURL:   homeURL,
		log:       logger.OrNop(log),
	}
}

// Scan returns up to limit articles linked from the homepage, in page
// order, each with an empty summary.
func (h *HomepageScanner) Scan(ctx context.Context, limit int) ([]newsfeed.NewsItem, error) {
	doc, _, err := h.fetcher.FetchDocument(ctx, h.homeURL, "debug_homepage.html")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch homepage: %w", err)
	}

	items := h.ScanDocument(doc, limit)
	h.log.Info("Homepage scan finished", logger.Int("count", len(items)))

	return items, nil
}

// ScanDocument extracts article links from an already parsed homepage.
func (h *HomepageScanner) ScanDocument(doc *goquery.Document, limit int) []newsfeed.NewsItem {
	type link struct{ title, href string }

	var items []newsfeed.NewsItem
	seen := make(map[link]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if limit > 0 && len(items) >= limit {
			return false
		}

		href, _ := a.Attr("href")
		if !isNewsHref(href) {
			return true
		}

		title := strings.Join(strings.Fields(a.Text()), " ")
		if utf8.RuneCountInString(title) <= MinHomepageTitle {
			return true
		}

		key := link{title: title, href: href}
		if seen[key] {
			return true
		}
		seen[key] = true

		items = append(items, newsfeed.NewNewsItem(title, "", h.extractor.Absolute(href)))
		return true
	})

	return items
}

func isNewsHref(href string) bool {
	for _, marker := range homepageMarkers {
		if strings.Contains(href, marker) {
			return true
		}
	}
	return false
}
