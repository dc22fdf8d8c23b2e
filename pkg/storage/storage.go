// Package storage provides object stores for uploaded student media.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or would escape the store root.
var ErrInvalidKey = errors.New("storage: invalid object key")

// ObjectStore persists opaque objects under string keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + escapeKey(key)
}

// escapeKey percent-encodes each path segment of key so that characters
// carried over from upload filenames survive in a URL.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
