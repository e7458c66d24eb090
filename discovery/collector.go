package discovery

import (
	"context"

	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
)

// DefaultMaxPages is the listing page ceiling.
const DefaultMaxPages = 5

// Seen reports whether an article id was processed by an earlier run.
type Seen interface {
	Contains(id string) bool
}

// Collection is the outcome of a collection pass. New holds at most the
// requested number of unseen articles, in listing order.
type Collection struct {
	New          []newsfeed.NewsItem
	Duplicates   []newsfeed.NewsItem
	PagesFetched int
}

// QuotaCollector pages through the listing until it has enough unseen
// articles or reaches the page ceiling.
type QuotaCollector struct {
	pages    PageSource
	seen     Seen
	pacer    *Pacer
	maxPages int
	log      logger.Logger
}

// NewQuotaCollector creates a collector. A non-positive maxPages uses
// DefaultMaxPages.
func NewQuotaCollector(pages PageSource, seen Seen, pacer *Pacer, maxPages int, log logger.Logger) *QuotaCollector {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &QuotaCollector{
		pages:    pages,
		seen:     seen,
		pacer:    pacer,
		maxPages: maxPages,
		log:      logger.OrNop(log),
	}
}

// Collect gathers up to target unseen articles. Falling short is not an
// error. An id repeated within the pass counts as new once; later copies are
// duplicates. When ctx is cancelled the articles gathered so far are
// returned with ctx's error.
func (c *QuotaCollector) Collect(ctx context.Context, target int) (Collection, error) {
	var col Collection
	if target <= 0 {
		return col, nil
	}

	accepted := make(map[string]bool)
	for page := 1; len(col.New) < target && page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return col, err
		}

		items := c.pages.FetchPage(ctx, page)
		col.PagesFetched++
		if len(items) == 0 {
			c.log.Warn("No news on listing page", logger.Int("page", page))
			continue
		}

		for _, item := range items {
			if len(col.New) >= target {
				break
			}
			if c.seen.Contains(item.ID) || accepted[item.ID] {
				col.Duplicates = append(col.Duplicates, item)
				c.log.Info("Duplicate news", logger.String("title", item.Title))
				continue
			}
			accepted[item.ID] = true
			col.New = append(col.New, item)
			c.log.Info("New news found", logger.String("title", item.Title))
		}

		if len(col.New) < target && page < c.maxPages && c.pacer != nil {
			if err := c.pacer.Wait(ctx); err != nil {
				return col, err
			}
		}
	}

	c.log.Info("Collection finished",
		logger.Int("new", len(col.New)),
		logger.Int("duplicates", len(col.Duplicates)),
		logger.Int("pages", col.PagesFetched),
	)

	return col, nil
}
