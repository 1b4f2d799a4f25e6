package stations

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmptyFilename = errors.New("filename is empty after sanitising")

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// SecureFilename reduces a client supplied name to a flat ASCII name that is
// safe to join onto the upload root.
func SecureFilename(name string) (string, error) {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	ascii := strings.ReplaceAll(b.String(), "/", " ")

	joined := strings.Join(strings.Fields(ascii), "_")
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(joined, ""), "._")
	if cleaned == "" {
		return "", ErrEmptyFilename
	}
	return cleaned, nil
}

// AllowedFile reports whether name has an extension from exts. exts are
// lowercase without the leading dot.
func AllowedFile(name string, exts []string) bool {
	if !strings.Contains(name, ".") {
		return false
	}
	ext := Extension(name)
	for _, allowed := range exts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Extension returns the lowercase text after the last dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
