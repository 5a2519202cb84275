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

// TestGet_SetsUserAgent verifies the configured User-Agent rides on every
// request.
func TestGet_SetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "novelhub-test/1.0")
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "novelhub-test/1.0", gotUA)
}

// TestGet_ErrorStatusShortCircuits verifies a non-2xx response fails on
// the status line alone: the body is never read, so an error page whose
// body never arrives still returns the status error immediately.
func TestGet_ErrorStatusShortCircuits(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		w.WriteHeader(http.StatusInternalServerError)
		w.(http.Flusher).Flush()
		<-block
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	f := NewFetcher(time.Second, "novelhub-test/1.0")
	_, err := f.Get(context.Background(), srv.URL)

	require.Error(t, err)
	assert.ErrorContains(t, err, "status 500")
}

// TestDocument_ParsesHTML verifies the fetched body comes back as a
// queryable tree.
func TestDocument_ParsesHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1 class="novel-title">Sword of Dawn</h1></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "novelhub-test/1.0")
	doc, err := f.Document(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Sword of Dawn", doc.Find("h1.novel-title").Text())
}
