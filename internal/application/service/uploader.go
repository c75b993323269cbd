package service

import (
	"context"
	"io"
)

// Uploader stores binary assets and hands back a public URL. Keys are
// "<folder>/<publicID>".
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Upload back to its key. ok is false
	// for URLs this store did not issue.
	KeyFromURL(url string) (key string, ok bool)
}
