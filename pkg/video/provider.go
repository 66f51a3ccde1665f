package video

import "context"

// Provider is one backing implementation that turns a post URL into a direct video URL.
// Returning an empty URL and returning an error are both treated as a failed attempt.
type Provider interface {
	Name() string
	VideoURL(ctx context.Context, locator string) (string, error)
}
