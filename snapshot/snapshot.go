// Package snapshot saves full-page screenshots of the dashboard tabs using
// headless Chrome.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"games-dashboard/models"
	"games-dashboard/utils"
)

var errNotCaptured = errors.New("page not captured")

// Page is one dashboard view to capture.
type Page struct {
	Name string
	Path string
}

// DefaultPages lists the three dashboard tabs.
func DefaultPages() []Page {
	return []Page{
		{Name: "descriptive", Path: "/"},
		{Name: "inferential", Path: "/inferential"},
		{Name: "raw", Path: "/raw"},
	}
}

// Options configures the browser and the output location.
type Options struct {
	OutputDir   string
	ChromeBin   string
	Concurrency int
	RateLimitMs int
	Timeout     time.Duration
	Width       int64
	Height      int64
}

// Result is the outcome of capturing one page.
type Result struct {
	Page Page
	File string
	Err  error
}

// Run describes one capture run. Files land in Dir, named after each page.
type Run struct {
	ID      string
	Dir     string
	Results []Result
}

// Capturer drives headless Chrome against a running dashboard.
type Capturer struct {
	opts   Options
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

func New(opts Options, retry *utils.RetryConfig, logger *utils.Logger) *Capturer {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Width <= 0 {
		opts.Width = 1440
	}
	if opts.Height <= 0 {
		opts.Height = 900
	}
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: logger}
	}
	return &Capturer{
		opts:   opts,
		logger: logger,
		pool:   utils.NewWorkerPool(opts.Concurrency, time.Duration(opts.RateLimitMs)*time.Millisecond),
		retry:  retry,
	}
}

// Capture screenshots every page under baseURL into a fresh run directory.
// A run with failed pages is returned together with an error.
func (c *Capturer) Capture(ctx context.Context, baseURL string, pages []Page) (*Run, error) {
	run := &Run{ID: uuid.NewString()}
	run.Dir = filepath.Join(c.opts.OutputDir, run.ID)
	if err := os.MkdirAll(run.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: snapshot: create %s: %v", models.ErrIO, run.Dir, err)
	}

	chromeBin := findChromeBinary(c.opts.ChromeBin)
	if chromeBin == "" {
		c.logger.Warn("[snapshot] No browser binary found, relying on chromedp defaults")
	} else {
		c.logger.Info("[snapshot] Using browser binary: %s", chromeBin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(int(c.opts.Width), int(c.opts.Height)),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// start the browser once so every page opens as a tab in it
	if err := chromedp.Run(browserCtx); err != nil {
		return run, fmt.Errorf("snapshot: start browser: %w", err)
	}

	base := strings.TrimRight(baseURL, "/")
	run.Results = make([]Result, len(pages))
	for i, p := range pages {
		run.Results[i] = Result{Page: p, Err: errNotCaptured}
	}

	var mu sync.Mutex
	for i, p := range pages {
		file := filepath.Join(run.Dir, p.Name+".png")
		err := c.pool.Submit(ctx, func(ctx context.Context) {
			err := c.retry.Do(ctx, "snapshot-"+p.Name, func(context.Context) error {
				return c.capturePage(browserCtx, base+p.Path, file)
			})

			mu.Lock()
			run.Results[i] = Result{Page: p, File: file, Err: err}
			mu.Unlock()

			if err != nil {
				c.logger.Error("[snapshot] %s failed: %v", p.Name, err)
				return
			}
			c.logger.Info("[snapshot] Saved %s → %s", p.Name, file)
		})
		if err != nil {
			mu.Lock()
			run.Results[i] = Result{Page: p, File: file, Err: err}
			mu.Unlock()
		}
	}
	c.pool.Wait()

	failed := 0
	for _, r := range run.Results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return run, fmt.Errorf("snapshot: %d of %d pages failed", failed, len(pages))
	}
	return run, nil
}

func (c *Capturer) capturePage(browserCtx context.Context, url, file string) error {
	ctx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancelTimeout()

	var buf []byte
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(c.opts.Width, c.opts.Height),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return fmt.Errorf("chromedp run: %w", err)
	}
	if len(buf) == 0 {
		return errors.New("empty screenshot")
	}

	if err := os.WriteFile(file, buf, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", models.ErrIO, file, err)
	}
	return nil
}

// findChromeBinary resolves the browser from the configured path, CHROME_BIN,
// PATH, then well-known install locations. Empty means none was found.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
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
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
