// Package scraper extracts article records from listing and detail pages
// whose markup this program does not control. Every field is read through
// an ordered chain of locators so a markup change degrades one strategy at
// a time instead of breaking extraction outright.
package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
)

// Errors reported for fragments that cannot become records.
var (
	ErrNoTitle = errors.New("article has no title")
	ErrNoLink  = errors.New("article has no link")
)

// Strategy names reported by FindArticles.
const (
	StrategyNone     = "none"
	StrategyFallback = "heading-links"
)

// Fields holds the raw values extracted from one fragment. Empty means the
// field was not found.
type Fields struct {
	Title   string
	Summary string
	Link    string
	Image   string
	Author  string
	Date    string
}

// DetailFields holds the values extracted from an article page.
type DetailFields struct {
	Summary  string
	ImageURL string
}

// Extractor turns listing pages into news items.
type Extractor struct {
	base    *url.URL
	baseURL string
	list    ListConfig
	article ArticleConfig
	detail  DetailConfig
	log     logger.Logger
}

// NewExtractor creates an extractor that resolves relative links against
// baseURL.
func NewExtractor(baseURL string, sel Selectors, log logger.Logger) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q is not absolute", baseURL)
	}

	return &Extractor{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		list:    sel.ListConfig(),
		article: sel.ArticleConfig(),
		detail:  sel.DetailConfig(),
		log:     logger.OrNop(log),
	}, nil
}

// FindArticles locates article fragments in a listing document. The block
// selectors are tried first; only when none of them matches anything are
// heading links pointing at article URLs promoted to fragments. The second
// return value names the strategy that produced the fragments.
func (e *Extractor) FindArticles(doc *goquery.Document) ([]*goquery.Selection, string) {
	for _, sel := range e.list.ArticleBlocks {
		found := doc.Find(sel)
		if found.Length() == 0 {
			continue
		}
		frags := make([]*goquery.Selection, 0, found.Length())
		found.Each(func(_ int, s *goquery.Selection) {
			frags = append(frags, s)
		})
		return frags, sel
	}

	var frags []*goquery.Selection
	seen := make(map[*html.Node]bool)
	doc.Find(e.list.HeadingLinks).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !e.isArticleLink(href) {
			return
		}
		block := a.Parent().Parent()
		if block.Length() == 0 || seen[block.Get(0)] {
			return
		}
		seen[block.Get(0)] = true
		frags = append(frags, block)
	})

	if len(frags) == 0 {
		return nil, StrategyNone
	}
	return frags, StrategyFallback
}

func (e *Extractor) isArticleLink(href string) bool {
	if href == "" {
		return false
	}
	lower := strings.ToLower(href)
	for _, marker := range e.list.ArticleLinkMarkers {
		if !strings.Contains(lower, strings.ToLower(marker)) {
			return false
		}
	}
	return true
}

// ExtractFields runs every field chain against the fragment. The link is
// read from the element that supplied the title. Link and image are made
// absolute; the image keeps only the first candidate of a srcset style list.
func (e *Extractor) ExtractFields(frag *goquery.Selection) Fields {
	var f Fields
	titleEl, title, ok := e.article.Title.FirstMatch(frag)
	if ok {
		f.Title = title
		if titleEl != nil {
			if link, ok := e.article.Link.First(titleEl); ok {
				f.Link = e.Absolute(link)
			}
		}
	}
	f.Summary, _ = e.article.Summary.First(frag)
	f.Author, _ = e.article.Author.First(frag)
	f.Date, _ = e.article.Date.First(frag)
	if img, ok := e.article.Image.First(frag); ok {
		f.Image = e.Absolute(firstToken(img))
	}

	return f
}

// Extract converts one fragment into a news item. Fragments without a
// title or link are rejected.
func (e *Extractor) Extract(frag *goquery.Selection) (newsfeed.NewsItem, error) {
	f := e.ExtractFields(frag)
	if f.Title == "" {
		return newsfeed.NewsItem{}, ErrNoTitle
	}
	if f.Link == "" {
		return newsfeed.NewsItem{}, ErrNoLink
	}

	summary := f.Summary
	if summary == "" {
		summary = newsfeed.NoSummary
	}

	item := newsfeed.NewNewsItem(f.Title, summary, f.Link)
	item.ImageURL = newsfeed.StringPtr(f.Image)
	item.Author = newsfeed.StringPtr(f.Author)
	item.PublishedDate = newsfeed.StringPtr(f.Date)

	return item, nil
}

// ExtractAll finds and extracts every article in a listing document. A
// fragment that fails is logged and skipped without affecting the others.
func (e *Extractor) ExtractAll(doc *goquery.Document) []newsfeed.NewsItem {
	frags, strategy := e.FindArticles(doc)
	if len(frags) == 0 {
		e.log.Warn("No articles found in document")
		return nil
	}
	e.log.Info("Articles located", logger.String("strategy", strategy), logger.Int("count", len(frags)))

	items := make([]newsfeed.NewsItem, 0, len(frags))
	for i, frag := range frags {
		item, err := e.safeExtract(frag)
		switch {
		case errors.Is(err, ErrNoTitle), errors.Is(err, ErrNoLink):
			e.log.Debug("Skipping incomplete article", logger.Int("index", i), logger.Err(err))
			continue
		case err != nil:
			e.log.Error("Failed to process article", logger.Int("index", i), logger.Err(err))
			continue
		}
		e.log.Info("News extracted", logger.String("title", item.Title))
		items = append(items, item)
	}

	return items
}

func (e *Extractor) safeExtract(frag *goquery.Selection) (item newsfeed.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting article: %v", r)
		}
	}()
	return e.Extract(frag)
}

// ExtractDetail reads the summary and main image of an article page.
func (e *Extractor) ExtractDetail(doc *goquery.Document) DetailFields {
	var d DetailFields
	d.Summary, _ = e.detail.Summary.First(doc.Selection)
	if img, ok := e.detail.Image.First(doc.Selection); ok {
		d.ImageURL = e.Absolute(firstToken(img))
	}
	return d
}

// Absolute returns raw unchanged when it is already an http(s) URL and
// otherwise resolves it against the site's base URL.
func (e *Extractor) Absolute(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	ref, err := url.Parse(raw)
	if err != nil {
		if strings.HasPrefix(raw, "/") {
			return e.baseURL + raw
		}
		return e.baseURL + "/" + raw
	}
	return e.base.ResolveReference(ref).String()
}

// BaseURL returns the site base URL without a trailing slash.
func (e *Extractor) BaseURL() string {
	return e.baseURL
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
