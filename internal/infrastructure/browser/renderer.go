package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"

	"CompetitorWatch/internal/ports"
)

// ChromeRenderer obtains the DOM after client-side rendering using a
// headless Chrome instance. Navigation is bounded and a short settle wait
// lets dynamic content populate before the snapshot.
type ChromeRenderer struct {
	navigationTimeout time.Duration
	settleWait        time.Duration
}

var _ ports.Renderer = (*ChromeRenderer)(nil)

// NewChromeRenderer builds a renderer with the given bounds.
func NewChromeRenderer(navigationTimeout, settleWait time.Duration) *ChromeRenderer {
	if navigationTimeout <= 0 {
		navigationTimeout = 30 * time.Second
	}
	if settleWait <= 0 {
		settleWait = 2 * time.Second
	}
	return &ChromeRenderer{navigationTimeout: navigationTimeout, settleWait: settleWait}
}

// Render navigates to the page and returns the rendered outer HTML.
func (r *ChromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.navigationTimeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.settleWait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}

// HTTPRenderer fetches the raw page body without executing scripts. Used
// when headless rendering is disabled by configuration.
type HTTPRenderer struct {
	client *http.Client
}

var _ ports.Renderer = (*HTTPRenderer)(nil)

// NewHTTPRenderer builds a plain-HTTP renderer with a bounded timeout.
func NewHTTPRenderer(timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRenderer{client: &http.Client{Timeout: timeout}}
}

// Render downloads the page body as served.
func (r *HTTPRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "CompetitorWatch/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}
	return string(body), nil
}
