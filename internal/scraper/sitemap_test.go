package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sitemapXML(locs ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		body += fmt.Sprintf("<url><loc>%s</loc></url>", loc)
	}
	return body + `</urlset>`
}

func sitemapIndexXML(locs ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, loc := range locs {
		body += fmt.Sprintf("<sitemap><loc>%s</loc></sitemap>", loc)
	}
	return body + `</sitemapindex>`
}

func newResolver() *SitemapResolver {
	f := NewFetcher(5*time.Second, "novelhub-test/1.0")
	return NewSitemapResolver(f, nil)
}

// TestListItemURLs_FiltersNovelPages verifies that only novel detail
// pages survive: chapter sub-pages and unrelated URLs are dropped, and
// sitemap order is preserved.
func TestListItemURLs_FiltersNovelPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sitemapXML(
			"https://example.com/novel/a",
			"https://example.com/novel/a/chapter-1",
			"https://example.com/other/b",
			"https://example.com/novel/b",
		))
	}))
	defer srv.Close()

	resolver := newResolver()
	urls, err := resolver.ListItemURLs(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/novel/a",
		"https://example.com/novel/b",
	}, urls)
}

// TestListItemURLs_ZeroMatches verifies that a sitemap with no novel
// pages is a valid, empty result rather than an error.
func TestListItemURLs_ZeroMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sitemapXML("https://example.com/other/a", "https://example.com/other/b"))
	}))
	defer srv.Close()

	resolver := newResolver()
	urls, err := resolver.ListItemURLs(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

// TestListItemURLs_FetchFailure verifies that an unreachable sitemap is
// fatal to the resolver.
func TestListItemURLs_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resolver := newResolver()
	_, err := resolver.ListItemURLs(context.Background(), srv.URL+"/sitemap.xml")
	assert.Error(t, err)
}

// TestListItemURLs_InvalidXML verifies that unparseable markup is fatal.
func TestListItemURLs_InvalidXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<urlset><url><loc>https://example.com/novel/a")
	}))
	defer srv.Close()

	resolver := newResolver()
	_, err := resolver.ListItemURLs(context.Background(), srv.URL+"/sitemap.xml")
	assert.Error(t, err)
}

// TestListItemURLs_SitemapIndex verifies recursion into nested sitemaps,
// with a broken nested sitemap skipped instead of failing the run.
func TestListItemURLs_SitemapIndex(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sitemapIndexXML(
			srv.URL+"/sitemap-1.xml",
			srv.URL+"/sitemap-missing.xml",
			srv.URL+"/sitemap-2.xml",
		))
	})
	mux.HandleFunc("/sitemap-1.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sitemapXML("https://example.com/novel/a"))
	})
	mux.HandleFunc("/sitemap-2.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sitemapXML("https://example.com/novel/b"))
	})
	mux.HandleFunc("/sitemap-missing.xml", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	resolver := newResolver()
	urls, err := resolver.ListItemURLs(context.Background(), srv.URL+"/sitemap.xml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/novel/a",
		"https://example.com/novel/b",
	}, urls)
}
