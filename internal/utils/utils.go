// Package utils provides helpers for naming stored and downloaded files.
//
// Functions:
//   - SanitizeFilename: Returns a safe filename for storage.
//   - StripExt: Returns a filename without its extension.
//   - WithExt: Replaces the extension of a filename.
//   - GenerateUUID: Returns a new UUID string.
//
// Used by the handlers for upload paths, result paths and download names.
package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func SanitizeFilename(name string) string {
	safe := unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe
}

func StripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// WithExt returns name with its extension replaced by ext, e.g. "scan.png"
// and ".pdf" give "scan.pdf".
func WithExt(name, ext string) string {
	return StripExt(name) + ext
}

func GenerateUUID() string {
	return uuid.New().String()
}
