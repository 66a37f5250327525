// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/website2html/internal/config"
	"github.com/xkilldash9x/website2html/internal/cookiejar"
	"github.com/xkilldash9x/website2html/internal/fetch"
	"github.com/xkilldash9x/website2html/internal/observability"
)

const rootLong = `website2html drives a headless Chromium instance to fetch a single web page
and prints the rendered HTML, after any JavaScript has run, to standard
output. All diagnostics go to standard error, so the output can be piped or
redirected safely.

Cookies can be pre-loaded from a JSON file before navigation. The file must
contain a JSON array of cookie records:

  [
    {
      "name": "session",
      "value": "d290f1ee6c54",
      "domain": "example.com",
      "path": "/",
      "httpOnly": true,
      "secure": true
    }
  ]`

const rootExamples = `  # Fetch a page and print its rendered HTML
  website2html https://example.com

  # Same, with the URL passed as a flag
  website2html --url https://example.com

  # Pre-load cookies and spoof the user agent before navigation
  website2html -c cookies.json -a "Mozilla/5.0 (X11; Linux x86_64)" https://example.com/account

  # Capture a screenshot of the rendered page alongside the HTML
  website2html -s page.png https://example.com > page.html

  # Watch the browser work in a visible window, with diagnostics
  website2html -n -v https://example.com`

// runFetch executes the fetch pipeline. It is a package variable so command
// tests can observe the final configuration without launching a browser.
var runFetch = func(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	runner := fetch.New(cfg, logger, fetch.NewBrowserLauncher(logger, cfg))
	return runner.Run(ctx, out)
}

// newRootCmd builds the root command. The tool has a single entry point and
// no sub-commands: the root command is the whole program.
func newRootCmd() *cobra.Command {
	var (
		cfgFile    string
		noHeadless bool
		cfg        *config.Config
	)

	rootCmd := &cobra.Command{
		Use:     "website2html [flags] [url]",
		Short:   "Fetch a web page with a headless browser and print the rendered HTML",
		Long:    rootLong,
		Example: rootExamples,
		Version: Version,
		Args:    cobra.MaximumNArgs(1),
		// Errors are printed exactly once by Execute; usage is only shown
		// for argument problems, not for browser failures.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// This runs before execution, setting up config and logging.
			if err := config.Initialize(cfgFile); err != nil {
				return err
			}

			// Bind flags to their corresponding viper keys so command-line
			// flags correctly override values from the config file and
			// environment variables.
			bindings := map[string]string{
				"fetch.url":             "url",
				"fetch.cookies_file":    "loadcookies",
				"fetch.screenshot_file": "screenshot",
				"fetch.user_agent":      "user-agent",
				"fetch.verbose":         "verbose",
			}
			for key, flagName := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
					return err
				}
			}

			loaded, err := config.Load()
			if err != nil {
				// Initialize a fallback logger if config loading fails.
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "website2html",
				})
				return err
			}

			// --noheadless inverts into the browser config; the flag only
			// wins when the user actually passed it.
			if cmd.Flags().Changed("noheadless") {
				loaded.Browser.Headless = !noHeadless
			}
			if loaded.Fetch.Verbose {
				loaded.Logger.Level = "debug"
			}

			observability.InitializeLogger(loaded.Logger)
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			// The first non-flag token wins as the URL source; the --url
			// flag is the fallback.
			if len(args) > 0 {
				cfg.Fetch.URL = args[0]
			}
			if cfg.Fetch.URL == "" {
				// Usage goes to the error stream; stdout stays reserved
				// for the HTML payload even on the failure path.
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return errors.New("no target URL provided (pass it as an argument or with --url)")
			}

			// Resolve and verify the cookie file before any browser is
			// launched; the error names the path that was actually tried.
			if cfg.Fetch.CookiesFile != "" {
				resolved, err := cookiejar.Resolve(cfg.Fetch.CookiesFile)
				if err != nil {
					return err
				}
				cfg.Fetch.CookiesFile = resolved
			}

			if cfg.Fetch.Verbose {
				logger.Debug("Resolved run configuration",
					zap.String("url", cfg.Fetch.URL),
					zap.String("cookies_file", orNone(cfg.Fetch.CookiesFile)),
					zap.String("screenshot_file", orNone(cfg.Fetch.ScreenshotFile)),
					zap.Bool("headless", cfg.Browser.Headless),
					zap.String("user_agent", orNone(cfg.Fetch.UserAgent)),
				)
			}

			return runFetch(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.Flags().StringP("url", "u", "", "target URL to fetch")
	rootCmd.Flags().StringP("loadcookies", "c", "", "path to a JSON cookie file installed before navigation")
	rootCmd.Flags().StringP("screenshot", "s", "", "write a screenshot of the rendered page to this file")
	rootCmd.Flags().StringP("user-agent", "a", "", "user agent applied to the session before navigation")
	rootCmd.Flags().BoolP("verbose", "v", false, "dump the resolved configuration to stderr")
	rootCmd.Flags().BoolVarP(&noHeadless, "noheadless", "n", false, "run the browser with a visible window")

	rootCmd.SetVersionTemplate("website2html version {{.Version}}\n")

	// Unrecognized flags still get the usage text on stderr.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		return err
	})

	return rootCmd
}

// orNone renders optional configuration values for the verbose dump.
func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// Execute runs the root command and maps any failure to a non-zero exit.
func Execute() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}
