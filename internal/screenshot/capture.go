package screenshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Capturer renders the board page in headless Chrome and returns a PNG.
type Capturer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	logger   *zap.Logger
}

// New starts an allocator; the browser itself is launched on first capture.
func New(timeout time.Duration, logger *zap.Logger) *Capturer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Capturer{allocCtx: allocCtx, cancel: cancel, timeout: timeout, logger: logger}
}

// Capture loads pageURL, waits for the table and takes a full-page PNG.
func (c *Capturer) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("screenshot: invalid page url %q", pageURL)
	}

	taskCtx, cancel := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(c.logger.Sugar().Debugf))
	defer cancel()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	start := time.Now()
	var buf []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible("table", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("screenshot: timed out after %s: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	c.logger.Debug("board screenshot captured",
		zap.String("url", pageURL),
		zap.Int("bytes", len(buf)),
		zap.Duration("took", time.Since(start)))
	return buf, nil
}

// Close shuts the browser down.
func (c *Capturer) Close() {
	c.cancel()
}
