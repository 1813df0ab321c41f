// Package browser opens the login surface in the user's default browser.
package browser

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/browser"

	"github.com/Cap-go/capacitor-social-login-sub000/internal/core/ports/driven"
	"github.com/Cap-go/capacitor-social-login-sub000/internal/logger"
)

func init() {
	// xdg-open and friends write to the terminal otherwise.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// Ensure SystemBrowser implements the interface.
var _ driven.Browser = (*SystemBrowser)(nil)

// SystemBrowser prints the URL and launches the system browser.
// When launching fails the printed URL is the fallback, so Open still succeeds.
type SystemBrowser struct {
	out      io.Writer
	noLaunch bool
	openURL  func(url string) error
}

// Option configures a SystemBrowser.
type Option func(*SystemBrowser)

// WithOutput sets where the URL is printed. Defaults to stderr.
func WithOutput(w io.Writer) Option {
	return func(b *SystemBrowser) { b.out = w }
}

// WithoutLaunch only prints the URL.
func WithoutLaunch() Option {
	return func(b *SystemBrowser) { b.noLaunch = true }
}

// New creates a SystemBrowser.
func New(opts ...Option) *SystemBrowser {
	b := &SystemBrowser{
		out:     os.Stderr,
		openURL: browser.OpenURL,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open shows url to the user.
func (b *SystemBrowser) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintf(b.out, "Open this URL to sign in:\n\n  %s\n\n", url)
	if b.noLaunch {
		return nil
	}
	if err := b.openURL(url); err != nil {
		logger.Warn("could not launch browser: %v", err)
	}
	return nil
}
