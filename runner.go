// Package gamingnews wires the crawling, history and materialization
// packages into a single run: collect unseen articles from the listing,
// fall back to other sources when there are none, enrich them from their
// own pages, remember them and write the day's content bundle.
package gamingnews

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/pevans/gamingnews/caption"
	"github.com/pevans/gamingnews/config"
	"github.com/pevans/gamingnews/discovery"
	"github.com/pevans/gamingnews/history"
	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/newsfeed"
	"github.com/pevans/gamingnews/scraper"
)

// DateLayout formats the date key of a bundle directory.
const DateLayout = "2006-01-02"

// Where the articles of a run came from.
const (
	SourceListing    = "listing"
	SourceHomepage   = "homepage"
	SourceFeed       = "feed"
	SourceDuplicates = "duplicates"
)

// ErrNoNews is returned when no source produced a single article.
var ErrNoNews = errors.New("no news found")

// RunResult describes a completed run.
type RunResult struct {
	RunID        uuid.UUID
	DateKey      string
	Dir          string
	CaptionsPath string
	New          []newsfeed.NewsItem
	Duplicates   []newsfeed.NewsItem
	Source       string
}

// Options carries the collaborators a Runner does not build from Config.
// Zero values select the production behavior.
type Options struct {
	// Rand drives user-agent rotation, jitter and hashtag sampling. Nil
	// builds one from the configured seed.
	Rand *rand.Rand
	// Sleep performs the jittered waits. Nil uses discovery.Sleep.
	Sleep  discovery.SleepFunc
	Logger logger.Logger
}

// Runner performs runs against one site with one history.
type Runner struct {
	count    int
	history  history.Store
	listing  *discovery.ListingCrawler
	collect  *discovery.QuotaCollector
	homepage *discovery.HomepageScanner
	feed     *discovery.FeedScanner
	enricher *discovery.DetailEnricher
	captions *caption.Formatter
	writer   *newsfeed.BundleWriter
	log      logger.Logger
}

// NewRunner builds a Runner from a validated configuration. It opens the
// history store, which Close releases.
func NewRunner(cfg *config.Config, opts Options) (*Runner, error) {
	log := logger.OrNop(opts.Logger)

	rng := opts.Rand
	if rng == nil {
		rng = discovery.NewRand(cfg.Crawl.Seed)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = discovery.Sleep
	}

	extractor, err := scraper.NewExtractor(cfg.Site.BaseURL, cfg.Selectors, log)
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.HistoryConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	fetcher := discovery.NewFetcher(cfg.FetcherConfig(), rng, sleep, log)
	pacer := discovery.NewPacer(cfg.Crawl.SleepMin.Std(), cfg.Crawl.SleepMax.Std(), rng, sleep, log)
	listing := discovery.NewListingCrawler(fetcher, extractor, cfg.NewsURL(), log)
	captions := caption.New(cfg.Caption, rng)

	writer, err := newsfeed.NewBundleWriter(cfg.ContentDir(), captions, discovery.NewImageDownloader(fetcher, log), log)
	if err != nil {
		store.Close()
		return nil, err
	}

	r := &Runner{
		count:    cfg.Crawl.NewsCount,
		history:  store,
		listing:  listing,
		collect:  discovery.NewQuotaCollector(listing, store, pacer, cfg.Crawl.MaxPages, log),
		homepage: discovery.NewHomepageScanner(fetcher, extractor, cfg.Site.BaseURL, log),
		enricher: discovery.NewDetailEnricher(fetcher, extractor, pacer, log),
		captions: captions,
		writer:   writer,
		log:      log,
	}
	if cfg.Site.FeedURL != "" {
		r.feed = discovery.NewFeedScanner(fetcher, cfg.Site.FeedURL, log)
	}

	return r, nil
}

// History returns the store the runner records articles in.
func (r *Runner) History() history.Store {
	return r.history
}

// Close releases the history store.
func (r *Runner) Close() error {
	return r.history.Close()
}

// Run performs one run dated now. A panic anywhere in the run is recovered
// and returned as an error.
func (r *Runner) Run(ctx context.Context, now time.Time) (result *RunResult, err error) {
	res := &RunResult{
		RunID:   uuid.New(),
		DateKey: now.Format(DateLayout),
	}
	log := r.log.With(logger.String("run_id", res.RunID.String()))

	defer func() {
		if p := recover(); p != nil {
			log.Error("Run panicked", logger.Any("panic", p), logger.Stack("stack"))
			result = nil
			err = fmt.Errorf("run panicked: %v", p)
		}
	}()

	log.Info("Starting run", logger.String("date", res.DateKey), logger.Int("count", r.count))

	col, err := r.collect.Collect(ctx, r.count)
	if err != nil {
		return nil, fmt.Errorf("failed to collect news: %w", err)
	}
	res.New, res.Duplicates, res.Source = col.New, col.Duplicates, SourceListing

	if len(res.New) == 0 {
		log.Warn("No new news on the listing, trying fallbacks",
			logger.Int("pages", col.PagesFetched), logger.Int("duplicates", len(col.Duplicates)))
		res.New, res.Source = r.fallback(ctx, log)
	}
	if len(res.New) == 0 {
		log.Error("No news found from any source")
		return nil, ErrNoNews
	}

	items, err := r.enricher.EnrichAll(ctx, res.New)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich news: %w", err)
	}
	res.New = items

	added := 0
	for _, item := range items {
		if r.history.Add(item.ID) {
			added++
		}
	}
	if err := r.history.Save(); err != nil {
		log.Error("Failed to save history", logger.Err(err))
	} else {
		log.Info("History saved", logger.Int("added", added), logger.Int("size", r.history.Len()))
	}

	bundle, err := r.writer.Write(ctx, res.DateKey, items, r.captions.Captions(items))
	if err != nil {
		return nil, fmt.Errorf("failed to write content: %w", err)
	}
	res.Dir = bundle.Dir
	res.CaptionsPath = bundle.CaptionsPath

	log.Info("Run complete",
		logger.String("source", res.Source),
		logger.Int("news", len(res.New)),
		logger.Int("duplicates", len(res.Duplicates)),
		logger.String("dir", res.Dir))

	return res, nil
}

// fallback tries the homepage, then the feed, then the first listing page
// regardless of history.
func (r *Runner) fallback(ctx context.Context, log logger.Logger) ([]newsfeed.NewsItem, string) {
	items, err := r.homepage.Scan(ctx, r.count)
	if err != nil {
		log.Warn("Homepage fallback failed", logger.Err(err))
	}
	if len(items) > 0 {
		log.Info("Using homepage news", logger.Int("count", len(items)))
		return items, SourceHomepage
	}

	if r.feed != nil {
		items, err := r.feed.Scan(ctx, r.count)
		if err != nil {
			log.Warn("Feed fallback failed", logger.Err(err))
		}
		if len(items) > 0 {
			log.Info("Using feed news", logger.Int("count", len(items)))
			return items, SourceFeed
		}
	}

	if ctx.Err() != nil {
		return nil, ""
	}

	items = r.listing.FetchPage(ctx, 1)
	if len(items) > r.count {
		items = items[:r.count]
	}
	if len(items) > 0 {
		log.Warn("Using already seen news", logger.Int("count", len(items)))
		return items, SourceDuplicates
	}

	return nil, ""
}
