package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
	"github.com/pevans/gamingnews/scraper"
)

// DetailEnricher fills in summary and image from each article's own page.
type DetailEnricher struct {
	fetcher   *Fetcher
	extractor *scraper.Extractor
	pacer     *Pacer
	log       logger.Logger
}

// NewDetailEnricher creates an enricher. pacer may be nil to skip waits.
func NewDetailEnricher(fetcher *Fetcher, extractor *scraper.Extractor, pacer *Pacer, log logger.Logger) *DetailEnricher {
	return &DetailEnricher{
		fetcher:   fetcher,
		extractor: extractor,
		pacer:     pacer,
		log:       logger.OrNop(log),
	}
}

// Enrich returns item with the detail page's summary and, when the item has
// none, its image. Title, link and ID never change. Any failure returns the
// item unchanged.
func (d *DetailEnricher) Enrich(ctx context.Context, item newsfeed.NewsItem) newsfeed.NewsItem {
	if d.pacer != nil {
		if err := d.pacer.Wait(ctx); err != nil {
			return item
		}
	}

	d.log.Info("Fetching article details", logger.String("url", item.Link))
	doc, body, err := d.fetcher.FetchDocument(ctx, item.Link, snapshotName(item))
	if err != nil {
		d.log.Error("Failed to fetch article details", logger.String("url", item.Link), logger.Err(err))
		return item
	}

	detail := d.extractor.ExtractDetail(doc)
	switch {
	case detail.Summary != "":
		item.Summary = detail.Summary
	case item.Summary == "" || item.Summary == newsfeed.NoSummary:
		if excerpt := readableExcerpt(body, item.Link); excerpt != "" {
			d.log.Debug("Using readability excerpt", logger.String("url", item.Link))
			item.Summary = excerpt
		}
	}

	if !item.HasImage() && detail.ImageURL != "" {
		item.ImageURL = newsfeed.StringPtr(detail.ImageURL)
	}

	return item
}

// EnrichAll enriches items one at a time, keeping their order. If ctx is
// cancelled the remaining items are returned unchanged with ctx's error.
func (d *DetailEnricher) EnrichAll(ctx context.Context, items []newsfeed.NewsItem) ([]newsfeed.NewsItem, error) {
	out := make([]newsfeed.NewsItem, len(items))
	copy(out, items)

	for i := range out {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out[i] = d.Enrich(ctx, out[i])
	}

	return out, nil
}

func snapshotName(item newsfeed.NewsItem) string {
	id := item.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("debug_article_%s.html", id)
}

// readableExcerpt returns the readability excerpt of an HTML page, or an
// empty string when none can be derived.
func readableExcerpt(body []byte, pageURL string) string {
	if len(body) == 0 {
		return ""
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return ""
	}

	return strings.Join(strings.Fields(article.Excerpt), " ")
}
