package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	sitemap "github.com/oxffaa/gopher-parse-sitemap"
)

// URL shapes on the scraped site. A novel detail page lives under
// /novel/<slug>; its chapters live under /novel/<slug>/chapter-N and are
// not detail pages.
const (
	novelPathSegment   = "/novel/"
	chapterPathSegment = "/chapter"
)

// SitemapResolver turns a sitemap URL into the ordered list of novel
// detail-page URLs it enumerates.
type SitemapResolver struct {
	fetcher *Fetcher
	logger  *log.Logger
}

func NewSitemapResolver(fetcher *Fetcher, logger *log.Logger) *SitemapResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &SitemapResolver{fetcher: fetcher, logger: logger}
}

// ListItemURLs fetches and parses the sitemap at sitemapURL and returns
// every novel detail-page URL in document order. Zero matches is a valid
// result; only an unreachable or unparseable sitemap is an error.
func (r *SitemapResolver) ListItemURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	locs, err := r.collect(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(locs))
	for _, loc := range locs {
		if isNovelURL(loc) {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// collect parses one sitemap document, following sitemap-index entries
// recursively. Nested sitemaps that fail to fetch are logged and skipped;
// only the top-level document is load-bearing.
func (r *SitemapResolver) collect(ctx context.Context, sitemapURL string) ([]string, error) {
	body, err := r.fetcher.Get(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}

	var locs []string
	parseErr := sitemap.Parse(bytes.NewReader(body), func(e sitemap.Entry) error {
		locs = append(locs, strings.TrimSpace(e.GetLocation()))
		return nil
	})
	if parseErr == nil && len(locs) > 0 {
		return locs, nil
	}

	// Either invalid XML or a sitemap index; try the index shape.
	var nested []string
	indexErr := sitemap.ParseIndex(bytes.NewReader(body), func(e sitemap.IndexEntry) error {
		nested = append(nested, strings.TrimSpace(e.GetLocation()))
		return nil
	})
	if len(nested) == 0 {
		if parseErr != nil {
			return nil, fmt.Errorf("parse sitemap: %w", parseErr)
		}
		if indexErr != nil {
			return nil, fmt.Errorf("parse sitemap index: %w", indexErr)
		}
		// a valid but empty urlset
		return nil, nil
	}

	for _, nestedURL := range nested {
		nestedLocs, err := r.collect(ctx, nestedURL)
		if err != nil {
			r.logger.Warn("skipping nested sitemap", "url", nestedURL, "err", err)
			continue
		}
		locs = append(locs, nestedLocs...)
	}
	return locs, nil
}

// isNovelURL reports whether loc looks like a novel detail page rather
// than a chapter sub-page or anything else the sitemap enumerates.
func isNovelURL(loc string) bool {
	return strings.Contains(loc, novelPathSegment) &&
		!strings.Contains(loc, chapterPathSegment)
}
