// File: internal/cookiejar/cookiejar.go

// Package cookiejar loads pre-set cookies from a JSON file so they can be
// installed into a browser session before navigation.
package cookiejar

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
)

// Cookie is one record of the cookie file: a name/value pair scoped to a
// domain and path, with optional httpOnly/secure flags. No invariant is
// enforced here beyond "the file parses as a JSON array"; a record the
// browser rejects surfaces from the session's SetCookies call.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	HTTPOnly bool   `json:"httpOnly"`
	Secure   bool   `json:"secure"`
}

// Resolve expands a user-supplied cookie file path (including a leading ~),
// makes a relative path absolute against the current working directory, and
// verifies that a regular file exists there. The returned path is the one a
// subsequent Load should read, and the one error messages must name.
func Resolve(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("could not resolve cookie file path %q: %w", path, err)
	}

	resolved := expanded
	if !filepath.IsAbs(resolved) {
		resolved, err = filepath.Abs(resolved)
		if err != nil {
			return "", fmt.Errorf("could not resolve cookie file path %q: %w", path, err)
		}
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("cookie file not found at %q", resolved)
	} else if err != nil {
		return "", fmt.Errorf("error accessing cookie file %q: %w", resolved, err)
	} else if info.IsDir() {
		return "", fmt.Errorf("cookie file path %q is a directory", resolved)
	}

	return resolved, nil
}

// Load reads a resolved cookie file and parses it as a JSON array of records.
func Load(path string) ([]Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file %q: %w", path, err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("cookie file %q is not a JSON array of cookie records: %w", path, err)
	}
	return cookies, nil
}
