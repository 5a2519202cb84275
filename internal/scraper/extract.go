package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"novelhub/pkg/models"
)

// Selector paths for the scraped site's novel detail pages. The cover is
// lazily loaded, so the real image URL sits in data-src, not src.
const (
	titleSelector    = "h1.novel-title"
	synopsisSelector = ".summary .content"
	coverSelector    = ".book img"
	coverAttr        = "data-src"
	authorSelector   = `a[href*="/author/"]`
	genreSelector    = `a[href*="/genre/"]`
)

// ErrMissingTitle signals a page that has no usable title. It is a skip,
// not a failure: the pipeline logs it and moves on to the next URL.
var ErrMissingTitle = errors.New("page has no usable title")

// Extract pulls the structured novel fields out of a parsed detail page.
// Title is the only required field. Genres keep document order and are not
// deduplicated here; the repository's unique constraints take care of that.
func Extract(doc *goquery.Document, pageURL string) (*models.NovelRecord, error) {
	title := strings.TrimSpace(doc.Find(titleSelector).First().Text())
	if title == "" {
		return nil, fmt.Errorf("%s: %w", pageURL, ErrMissingTitle)
	}

	rec := &models.NovelRecord{
		Title:     title,
		SourceURL: pageURL,
		Synopsis:  strings.TrimSpace(doc.Find(synopsisSelector).First().Text()),
		CoverURL:  doc.Find(coverSelector).First().AttrOr(coverAttr, ""),
		Author:    strings.TrimSpace(doc.Find(authorSelector).First().Text()),
	}

	doc.Find(genreSelector).Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			rec.Genres = append(rec.Genres, name)
		}
	})

	return rec, nil
}
