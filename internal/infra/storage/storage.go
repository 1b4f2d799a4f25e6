// Package storage keeps uploaded recordings either on the local filesystem
// or in an S3-compatible bucket. Both backends satisfy ports.FileStore.
package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("storage: invalid key")

// cleanKey rejects keys that could escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
