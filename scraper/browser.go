package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures the headless Chrome session.
type BrowserOptions struct {
	ChromeBin string
	// Timeout bounds one page load including the scroll loop.
	Timeout time.Duration
	// ScrollSteps is how many viewport scrolls trigger lazy-loaded cards.
	ScrollSteps int
	// ScrollWait is the pause after navigation and after each scroll.
	ScrollWait time.Duration
}

// Browser is a headless Chrome session for JS-rendered sources. It must be
// closed on every exit path.
type Browser struct {
	opts        BrowserOptions
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// NewBrowser launches Chrome. Failing to launch is fatal for a run.
func NewBrowser(opts BrowserOptions) (*Browser, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.ScrollWait <= 0 {
		opts.ScrollWait = 1500 * time.Millisecond
	}

	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(UserAgent),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	// Suppress chromedp log noise
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	b := &Browser{opts: opts, ctx: ctx, cancelAlloc: cancelAlloc, cancelCtx: cancelCtx}

	// Running with no actions starts the browser process.
	if err := chromedp.Run(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("browser: launch chrome (%q): %w", chromeBin, err)
	}
	return b, nil
}

// Fetch opens url in a new tab, scrolls to trigger lazy loading and returns
// the rendered document HTML.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.ctx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.opts.Timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.opts.ScrollWait),
	}
	for i := 0; i < b.opts.ScrollSteps; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil),
			chromedp.Sleep(b.opts.ScrollWait),
		)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return "", fmt.Errorf("browser: render %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.cancelCtx()
	b.cancelAlloc()
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
