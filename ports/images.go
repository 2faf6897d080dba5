package ports

import (
	"context"
	"io"
)

// ImageStore uploads an image to the external host and returns the hosted
// URL. The service never persists raw image bytes itself.
type ImageStore interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}
