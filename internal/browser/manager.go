// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/website2html/internal/config"
)

// launchProbeTimeout bounds the about:blank round trip used to verify that
// the browser process actually came up.
const launchProbeTimeout = 30 * time.Second

// Manager handles the lifecycle of the browser process. Session contexts are
// derived from its allocator context.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	// allocatorCtx manages the entire browser process.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
}

// NewManager initializes the browser manager and launches the browser
// process. A browser that cannot start (e.g., no Chromium binary on the
// machine) is reported here, before any navigation is attempted.
func NewManager(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}

	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser prepares allocator options and starts the browser process.
func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Debug("Initializing browser allocator...",
		zap.Bool("headless", m.cfg.Browser.Headless))

	opts := m.buildAllocatorOptions()

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// Create a temporary context with a timeout to verify the browser starts
	// and is responsive.
	probeCtx, cancelProbe := context.WithTimeout(allocCtx, launchProbeTimeout)
	probeCtx, cancelProbeCtx := chromedp.NewContext(probeCtx)
	defer cancelProbeCtx()
	defer cancelProbe()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel() // Ensure cleanup if the probe fails.
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Debug("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the flags for a configurable browser
// instance, honoring the headless/visible choice from the run configuration.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	// Start with the default options; flags appended later override earlier
	// ones, so the config decides headless mode.
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.Browser.IgnoreTLSErrors),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
	)

	// Add custom arguments from the config file.
	for _, arg := range m.cfg.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")

		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers (e.g., Docker on Linux).
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// NewSession opens one tab in the running browser. This tool uses exactly one
// session per invocation.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	sess, err := newSession(m.allocatorCtx, m.logger, m.cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	return sess, nil
}

// Shutdown terminates the browser process. It must be called on every exit
// path reached after NewManager succeeded, or the browser process leaks.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.allocatorCancel == nil {
		return nil
	}

	m.logger.Debug("Shutting down browser process...")
	m.allocatorCancel()

	// Wait for the allocator context to confirm termination, respecting the
	// caller's deadline.
	select {
	case <-m.allocatorCtx.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("browser shutdown deadline exceeded: %w", ctx.Err())
	}
}
