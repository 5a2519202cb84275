package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"novelhub/pkg/models"
)

// Store is the persistence contract the pipeline writes through.
// Implemented by novel.Repo.
type Store interface {
	// SaveNovel persists rec atomically (author, novel row, genre links).
	// created is false when a novel with the same source URL already
	// existed, in which case nothing was written.
	SaveNovel(ctx context.Context, rec models.NovelRecord) (id int64, created bool, err error)
}

// Notifier receives progress events during a run. Implemented by
// progress.Hub; a nil notifier disables publishing.
type Notifier interface {
	Publish(v any)
}

// Event types pushed to the progress notifier.
const (
	EventRunStarted  = "run.started"
	EventItemSaved   = "item.saved"
	EventItemSkipped = "item.skipped"
	EventItemFailed  = "item.failed"
	EventRunFinished = "run.finished"
)

// Event is one progress update for a pipeline run.
type Event struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	URL       string    `json:"url,omitempty"`
	Title     string    `json:"title,omitempty"`
	Error     string    `json:"error,omitempty"`
	Attempted int       `json:"attempted"`
	Processed int       `json:"processed"`
	At        time.Time `json:"at"`
}

// Summary is the aggregate result of one pipeline run.
type Summary struct {
	RunID     string `json:"run_id"`
	Attempted int    `json:"attempted"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// Pipeline drives one full scrape: resolve the sitemap, then fetch,
// extract and persist every novel page sequentially.
type Pipeline struct {
	fetcher  *Fetcher
	resolver *SitemapResolver
	store    Store
	notifier Notifier
	logger   *log.Logger
}

func NewPipeline(fetcher *Fetcher, resolver *SitemapResolver, store Store, notifier Notifier, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		fetcher:  fetcher,
		resolver: resolver,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Run scrapes every novel page the sitemap enumerates. A sitemap-level
// failure is the one fatal path; per-page fetch, extraction and
// persistence errors are logged, counted and skipped. Processed counts
// freshly inserted novels only, so re-running over the same sitemap
// reports 0. Cancellation is honored between page iterations.
func (p *Pipeline) Run(ctx context.Context, sitemapURL string) (Summary, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	urls, err := p.resolver.ListItemURLs(ctx, sitemapURL)
	if err != nil {
		return Summary{RunID: runID}, fmt.Errorf("resolve sitemap %s: %w", sitemapURL, err)
	}

	sum := Summary{RunID: runID, Attempted: len(urls)}
	logger.Info("run started", "sitemap", sitemapURL, "urls", len(urls))
	p.publish(Event{Type: EventRunStarted, RunID: runID, Attempted: len(urls), At: time.Now()})

	for _, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled", "after", sum.Processed)
			return sum, err
		}

		doc, err := p.fetcher.Document(ctx, pageURL)
		if err != nil {
			logger.Warn("page fetch failed", "url", pageURL, "err", err)
			sum.Failed++
			p.publish(Event{Type: EventItemFailed, RunID: runID, URL: pageURL, Error: err.Error(), At: time.Now()})
			continue
		}

		rec, err := Extract(doc, pageURL)
		if err != nil {
			if errors.Is(err, ErrMissingTitle) {
				logger.Info("page skipped", "url", pageURL, "reason", "missing title")
				sum.Skipped++
				p.publish(Event{Type: EventItemSkipped, RunID: runID, URL: pageURL, At: time.Now()})
			} else {
				logger.Warn("extraction failed", "url", pageURL, "err", err)
				sum.Failed++
				p.publish(Event{Type: EventItemFailed, RunID: runID, URL: pageURL, Error: err.Error(), At: time.Now()})
			}
			continue
		}

		_, created, err := p.store.SaveNovel(ctx, *rec)
		if err != nil {
			logger.Warn("save failed", "url", pageURL, "err", err)
			sum.Failed++
			p.publish(Event{Type: EventItemFailed, RunID: runID, URL: pageURL, Error: err.Error(), At: time.Now()})
			continue
		}
		if !created {
			logger.Debug("novel already stored", "url", pageURL)
			continue
		}

		sum.Processed++
		logger.Info("novel saved", "title", rec.Title, "author", rec.Author, "genres", len(rec.Genres))
		p.publish(Event{Type: EventItemSaved, RunID: runID, URL: pageURL, Title: rec.Title, At: time.Now()})
	}

	logger.Info("run finished", "attempted", sum.Attempted, "processed", sum.Processed,
		"skipped", sum.Skipped, "failed", sum.Failed)
	p.publish(Event{Type: EventRunFinished, RunID: runID, Attempted: sum.Attempted, Processed: sum.Processed, At: time.Now()})
	return sum, nil
}

func (p *Pipeline) publish(ev Event) {
	if p.notifier == nil {
		return
	}
	p.notifier.Publish(ev)
}
