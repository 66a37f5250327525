// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/website2html/internal/config"
	"github.com/xkilldash9x/website2html/internal/observability"
)

// newPristineRootCmd returns a fresh root command with clean global state.
// viper and the logger are process-wide singletons, so every test must start
// from scratch to stay isolated.
func newPristineRootCmd(t *testing.T) *cobra.Command {
	t.Helper()
	viper.Reset()
	observability.ResetForTest()
	return newRootCmd()
}

// stubFetch replaces the fetch pipeline for the duration of a test and
// captures the configuration the command resolved. The stub writes a fixed
// payload so output routing can be asserted without a browser.
func stubFetch(t *testing.T, payload string) (captured **config.Config, called *bool) {
	t.Helper()

	var cfg *config.Config
	ran := false

	original := runFetch
	runFetch = func(ctx context.Context, c *config.Config, logger *zap.Logger, out io.Writer) error {
		cfg = c
		ran = true
		if payload != "" {
			_, err := io.WriteString(out, payload)
			return err
		}
		return nil
	}
	t.Cleanup(func() { runFetch = original })

	return &cfg, &ran
}

// executeCommand runs the command with separated stdout/stderr buffers.
func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	if args == nil {
		// nil would make cobra fall back to os.Args.
		args = []string{}
	}
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}
