// File: cmd/root_test.go
package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/net/html"
)

func TestRootCmd_HelpFlag(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	_, ran := stubFetch(t, "")

	stdout, _, err := executeCommand(t, testRootCmd, "--help")

	require.NoError(t, err)
	assert.False(t, *ran, "help must not launch a browser session")
	assert.Contains(t, stdout, "website2html drives a headless Chromium instance")
	assert.Contains(t, stdout, "--loadcookies")
	assert.Contains(t, stdout, "httpOnly", "help should include the cookie file schema")
	// The five usage examples.
	assert.Equal(t, 5, strings.Count(stdout, "  # "), "help should carry the five usage examples")
}

func TestRootCmd_VersionFlag(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)

	stdout, _, err := executeCommand(t, testRootCmd, "--version")

	require.NoError(t, err)
	assert.Contains(t, stdout, "website2html version 1.0")
}

func TestRootCmd_MissingURL(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	_, ran := stubFetch(t, "<html></html>\n")

	stdout, stderr, err := executeCommand(t, testRootCmd)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target URL")
	assert.False(t, *ran, "no session may be launched without a URL")
	assert.Empty(t, stdout, "nothing may be written to stdout on a failed run")
	assert.Contains(t, stderr, "Usage:")
}

func TestRootCmd_UnknownFlag(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	_, ran := stubFetch(t, "")

	stdout, stderr, err := executeCommand(t, testRootCmd, "--definitely-not-a-flag")

	require.Error(t, err)
	assert.False(t, *ran)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage:")
}

func TestRootCmd_PositionalURLWinsOverFlag(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	captured, _ := stubFetch(t, "")

	_, _, err := executeCommand(t, testRootCmd,
		"https://positional.example", "--url", "https://flag.example")

	require.NoError(t, err)
	require.NotNil(t, *captured)
	assert.Equal(t, "https://positional.example", (*captured).Fetch.URL)
}

func TestRootCmd_URLFromFlag(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	captured, _ := stubFetch(t, "")

	_, _, err := executeCommand(t, testRootCmd, "-u", "https://flag.example")

	require.NoError(t, err)
	require.NotNil(t, *captured)
	assert.Equal(t, "https://flag.example", (*captured).Fetch.URL)
}

func TestRootCmd_HTMLGoesToStdoutOnly(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	payload := "<!DOCTYPE html><html><head></head><body>ok</body></html>\n"
	_, _ = stubFetch(t, payload)

	stdout, _, err := executeCommand(t, testRootCmd, "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, payload, stdout)

	// The payload must still be a parseable HTML document.
	_, parseErr := html.Parse(strings.NewReader(stdout))
	assert.NoError(t, parseErr)
}

func TestRootCmd_MissingCookieFile(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	_, ran := stubFetch(t, "")
	missing := filepath.Join(t.TempDir(), "no-such-cookies.json")

	stdout, _, err := executeCommand(t, testRootCmd,
		"-c", missing, "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), missing, "error should name the resolved path")
	assert.False(t, *ran, "cookie validation happens before any browser launch")
	assert.Empty(t, stdout)
}

func TestRootCmd_CookieFileResolvedBeforeRun(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	captured, _ := stubFetch(t, "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cookies.json"), []byte(`[]`), 0o644))
	t.Chdir(dir)

	_, _, err := executeCommand(t, testRootCmd, "-c", "cookies.json", "https://example.com")

	require.NoError(t, err)
	require.NotNil(t, *captured)
	assert.True(t, filepath.IsAbs((*captured).Fetch.CookiesFile),
		"relative cookie paths are resolved against the working directory")
}

func TestRootCmd_NoHeadlessFlag(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	captured, _ := stubFetch(t, "")

	_, _, err := executeCommand(t, testRootCmd, "-n", "https://example.com")

	require.NoError(t, err)
	require.NotNil(t, *captured)
	assert.False(t, (*captured).Browser.Headless)
}

func TestRootCmd_HeadlessByDefault(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	captured, _ := stubFetch(t, "")

	_, _, err := executeCommand(t, testRootCmd, "https://example.com")

	require.NoError(t, err)
	require.NotNil(t, *captured)
	assert.True(t, (*captured).Browser.Headless)
}

func TestRootCmd_VerboseForcesDebugLevel(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	captured, _ := stubFetch(t, "")

	_, _, err := executeCommand(t, testRootCmd, "-v", "https://example.com")

	require.NoError(t, err)
	require.NotNil(t, *captured)
	assert.True(t, (*captured).Fetch.Verbose)
	assert.Equal(t, "debug", (*captured).Logger.Level)
}

func TestRootCmd_ScreenshotAndUserAgentFlags(t *testing.T) {
	testRootCmd := newPristineRootCmd(t)
	captured, _ := stubFetch(t, "")

	_, _, err := executeCommand(t, testRootCmd,
		"-s", "shot.png", "-a", "TestAgent/2.0", "https://example.com")

	require.NoError(t, err)
	require.NotNil(t, *captured)
	assert.Equal(t, "shot.png", (*captured).Fetch.ScreenshotFile)
	assert.Equal(t, "TestAgent/2.0", (*captured).Fetch.UserAgent)
}
