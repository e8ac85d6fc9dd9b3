package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/infrastructure/parser"
	"CompetitorWatch/internal/ratelimit"
	"CompetitorWatch/internal/scraper"
)

type stubRenderer struct {
	html string
	err  error
}

func (s *stubRenderer) Render(_ context.Context, _ string) (string, error) {
	return s.html, s.err
}

func registry() *scraper.Registry {
	reg := scraper.NewRegistry()
	reg.Register(parser.NewChangelogExtractor())
	reg.Register(parser.NewGenericExtractor())
	return reg
}

func TestFetchExtractsItems(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{html: `
	<html><body>
	  <article><h2>New dashboard</h2><p>Completely redesigned analytics view.</p></article>
	</body></html>`}

	f := New(renderer, ratelimit.New(5, 0), registry(), nil)
	src := domain.Source{ID: "s1", URL: "https://acme.example.com/changelog", Type: domain.SourceChangelog}

	res := f.Fetch(context.Background(), src)
	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	if res.Items[0].Title != "New dashboard" {
		t.Fatalf("unexpected title: %s", res.Items[0].Title)
	}
}

func TestFetchRateLimitedIsDistinguished(t *testing.T) {
	t.Parallel()

	f := New(&stubRenderer{html: "<html></html>"}, ratelimit.New(1, 0), registry(), nil)
	src := domain.Source{ID: "s1", URL: "https://acme.example.com/changelog", Type: domain.SourceChangelog}

	ctx := context.Background()
	f.Fetch(ctx, src)
	res := f.Fetch(ctx, src)
	if res.Success {
		t.Fatal("second fetch should be throttled")
	}
	if !res.RateLimited {
		t.Fatalf("throttled fetch must be flagged RateLimited, reason %q", res.Reason)
	}
}

func TestFetchRenderFailure(t *testing.T) {
	t.Parallel()

	f := New(&stubRenderer{err: fmt.Errorf("navigation timeout")}, ratelimit.New(5, 0), registry(), nil)
	src := domain.Source{ID: "s1", URL: "https://acme.example.com", Type: domain.SourceGenericPage}

	res := f.Fetch(context.Background(), src)
	if res.Success || res.RateLimited {
		t.Fatalf("expected plain failure, got %+v", res)
	}
	if res.Reason == "" {
		t.Fatal("failure must carry a descriptive reason")
	}
}

func TestFetchNoContent(t *testing.T) {
	t.Parallel()

	f := New(&stubRenderer{html: "<html><body></body></html>"}, ratelimit.New(5, 0), registry(), nil)
	src := domain.Source{ID: "s1", URL: "https://acme.example.com", Type: domain.SourceGenericPage}

	res := f.Fetch(context.Background(), src)
	if res.Success {
		t.Fatal("empty page should not succeed")
	}
	if res.RateLimited {
		t.Fatal("content failure must not be flagged as throttling")
	}
}

func TestFetchRSSFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
		<rss version="2.0"><channel>
		  <title>Acme Changelog</title>
		  <item>
		    <title>Exports API</title>
		    <link>https://acme.example.com/changelog/exports</link>
		    <description>Bulk exports are now available over the API.</description>
		    <pubDate>Mon, 03 Mar 2025 09:00:00 GMT</pubDate>
		  </item>
		</channel></rss>`))
	}))
	defer server.Close()

	f := New(nil, ratelimit.New(5, 0), registry(), nil)
	src := domain.Source{ID: "s1", URL: server.URL, Type: domain.SourceRSSFeed}

	res := f.Fetch(context.Background(), src)
	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Items))
	}
	if res.Items[0].URL != "https://acme.example.com/changelog/exports" {
		t.Fatalf("unexpected link: %s", res.Items[0].URL)
	}
	if res.Items[0].PublishedAt == nil {
		t.Fatal("expected parsed publish date")
	}
}
