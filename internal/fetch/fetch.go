// File: internal/fetch/fetch.go

// Package fetch runs the single page fetch this tool exists for: launch a
// browser, configure one tab, navigate once, optionally capture a
// screenshot, and emit the rendered HTML. Every external call is attempted
// exactly once; any rejection is fatal.
package fetch

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/website2html/internal/browser"
	"github.com/xkilldash9x/website2html/internal/config"
	"github.com/xkilldash9x/website2html/internal/cookiejar"
)

// shutdownGracePeriod bounds browser teardown after the run finished.
const shutdownGracePeriod = 15 * time.Second

// Session is the slice of a browser tab this pipeline needs. The ordering
// contract: SetUserAgent and SetCookies strictly before Navigate, Screenshot
// strictly between Navigate and HTML.
type Session interface {
	SetUserAgent(userAgent string) error
	SetCookies(cookies []cookiejar.Cookie) error
	Navigate(url string) error
	Screenshot(path string) error
	HTML() (string, error)
	Close(ctx context.Context) error
}

// Launcher owns the browser process behind the sessions.
type Launcher interface {
	NewSession(ctx context.Context) (Session, error)
	Shutdown(ctx context.Context) error
}

// LauncherFactory starts a browser. Swapped for a mock in tests.
type LauncherFactory func(ctx context.Context) (Launcher, error)

// NewBrowserLauncher returns the chromedp-backed factory.
func NewBrowserLauncher(logger *zap.Logger, cfg *config.Config) LauncherFactory {
	return func(ctx context.Context) (Launcher, error) {
		mgr, err := browser.NewManager(ctx, logger, cfg)
		if err != nil {
			return nil, err
		}
		return &managerLauncher{mgr: mgr}, nil
	}
}

// managerLauncher adapts *browser.Manager to the Launcher interface.
type managerLauncher struct {
	mgr *browser.Manager
}

func (ml *managerLauncher) NewSession(ctx context.Context) (Session, error) {
	return ml.mgr.NewSession(ctx)
}

func (ml *managerLauncher) Shutdown(ctx context.Context) error {
	return ml.mgr.Shutdown(ctx)
}

// Runner drives one fetch from launch to teardown.
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	launcher LauncherFactory
}

// New creates a Runner for the given configuration.
func New(cfg *config.Config, logger *zap.Logger, launcher LauncherFactory) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logger.Named("fetch"),
		launcher: launcher,
	}
}

// Run executes the fetch and writes the rendered HTML, newline terminated,
// to out. Nothing is written to out on a failed run; a teardown failure
// after the HTML has been flushed does not fail the run.
func (r *Runner) Run(ctx context.Context, out io.Writer) error {
	fetchCfg := r.cfg.Fetch

	// 1. Launch the browser process.
	launcher, err := r.launcher(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := launcher.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("Error during browser shutdown", zap.Error(err))
		}
	}()

	// 2. Open the one tab this run uses.
	sess, err := launcher.NewSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// Close is idempotent; this covers the failure paths. The success
		// path closes explicitly below, after the HTML is out.
		if err := sess.Close(ctx); err != nil {
			r.logger.Warn("Error closing browser session", zap.Error(err))
		}
	}()

	// 3. Configure the session, strictly before navigation.
	if fetchCfg.UserAgent != "" {
		if err := sess.SetUserAgent(fetchCfg.UserAgent); err != nil {
			return err
		}
	}
	if fetchCfg.CookiesFile != "" {
		cookies, err := cookiejar.Load(fetchCfg.CookiesFile)
		if err != nil {
			return err
		}
		if err := sess.SetCookies(cookies); err != nil {
			return err
		}
	}

	// 4. Navigate, waiting for load completion.
	if err := sess.Navigate(fetchCfg.URL); err != nil {
		return err
	}

	// 5. Screenshot after load, before content extraction.
	if fetchCfg.ScreenshotFile != "" {
		if err := sess.Screenshot(fetchCfg.ScreenshotFile); err != nil {
			return err
		}
	}

	// 6. Extract the live DOM and emit it as the single stdout payload.
	html, err := sess.HTML()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, html); err != nil {
		return fmt.Errorf("failed to write page content: %w", err)
	}

	// 7. Teardown. The payload is already flushed, so a close failure must
	// not turn the run into an error.
	if err := sess.Close(ctx); err != nil {
		r.logger.Warn("Error closing browser session after output", zap.Error(err))
	}

	r.logger.Debug("Fetch completed", zap.String("url", fetchCfg.URL))
	return nil
}
