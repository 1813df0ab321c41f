package driven

import "context"

// Browser opens a URL in the interactive login surface.
// The surface reports back separately, through a callback event.
type Browser interface {
	Open(ctx context.Context, url string) error
}
