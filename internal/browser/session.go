// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/website2html/internal/config"
	"github.com/xkilldash9x/website2html/internal/cookiejar"
)

// Session manages a single, isolated browser tab. All operations run
// strictly sequentially: user agent and cookies are applied before Navigate,
// Screenshot and HTML only make sense after it.
type Session struct {
	id      string
	logger  *zap.Logger
	network config.NetworkConfig

	sessionCtx    context.Context
	sessionCancel context.CancelFunc

	isClosed bool
	mu       sync.Mutex
}

// newSession derives a tab context from the browser allocator context.
func newSession(allocCtx context.Context, logger *zap.Logger, netCfg config.NetworkConfig) (*Session, error) {
	id := uuid.New().String()
	sessionCtx, cancel := chromedp.NewContext(allocCtx)

	return &Session{
		id:            id,
		logger:        logger.With(zap.String("session_id", id[:8])),
		network:       netCfg,
		sessionCtx:    sessionCtx,
		sessionCancel: cancel,
	}, nil
}

// SetUserAgent overrides the user agent for this session. Must be called
// before Navigate so the page request already carries it.
func (s *Session) SetUserAgent(userAgent string) error {
	s.logger.Debug("Applying user agent override", zap.String("user_agent", userAgent))
	err := chromedp.Run(s.sessionCtx,
		emulation.SetUserAgentOverride(userAgent),
	)
	if err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}
	return nil
}

// SetCookies installs all records into the session before navigation. A
// record the browser rejects is fatal, identified by its cookie name.
func (s *Session) SetCookies(cookies []cookiejar.Cookie) error {
	s.logger.Debug("Installing cookies", zap.Int("count", len(cookies)))
	err := chromedp.Run(s.sessionCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				path := c.Path
				if path == "" {
					path = "/"
				}
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(path).
					WithHTTPOnly(c.HTTPOnly).
					WithSecure(c.Secure).
					Do(ctx)
				if err != nil {
					return fmt.Errorf("cookie %q rejected: %w", c.Name, err)
				}
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to install cookies: %w", err)
	}
	return nil
}

// Navigate loads the target URL and waits for the page to be ready, then
// lets async DOM work settle for the configured post-load wait. The whole
// step is bounded by the navigation timeout.
func (s *Session) Navigate(url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))

	navCtx := s.sessionCtx
	if s.network.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(navCtx, s.network.NavigationTimeout)
		defer cancel()
	}

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Wait for async operations to settle.
		chromedp.Sleep(s.network.PostLoadWait),
	)
	if err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	return nil
}

// Screenshot captures the current rendered page to the given path. The image
// format follows the path extension: .jpg/.jpeg produce JPEG, anything else
// PNG (the CDP default at quality 100).
func (s *Session) Screenshot(path string) error {
	s.logger.Debug("Capturing screenshot", zap.String("path", path))

	var buf []byte
	if err := chromedp.Run(s.sessionCtx, chromedp.FullScreenshot(&buf, screenshotQuality(path))); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot to %q: %w", path, err)
	}
	return nil
}

// screenshotQuality maps a destination path to the CDP capture quality.
// Quality 100 makes chromedp emit PNG; anything lower emits JPEG.
func screenshotQuality(path string) int {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return 90
	default:
		return 100
	}
}

// HTML returns the live serialized DOM of the page, after any
// JavaScript-driven mutation, not the original network response body.
func (s *Session) HTML() (string, error) {
	var content string
	if err := chromedp.Run(s.sessionCtx, chromedp.OuterHTML("html", &content)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// Close safely terminates the browser tab. It is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return nil
	}
	s.isClosed = true

	s.logger.Debug("Closing browser session.")

	// chromedp.Cancel closes the tab gracefully and waits for confirmation;
	// fall back to the hard cancel if that fails.
	if err := chromedp.Cancel(s.sessionCtx); err != nil {
		s.sessionCancel()
		return fmt.Errorf("failed to close session cleanly: %w", err)
	}
	return nil
}
