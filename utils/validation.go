package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._\s-]`)

// SanitizeFilename cleans filename for safe storage by removing dangerous characters
// and limiting length. It trims spaces and dots, removes parent directory references,
// and filters out non-alphanumeric characters except for safe punctuation.
func SanitizeFilename(filename string) string {
	sanitized := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	sanitized = strings.Trim(sanitized, " .")
	sanitized = strings.ReplaceAll(sanitized, "..", "")
	sanitized = unsafeFilenameChars.ReplaceAllString(sanitized, "")
	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}
	return sanitized
}

// Extension returns the lowercased extension of filename, including the dot.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// HasAllowedExtension reports whether filename ends in one of allowed.
// The comparison ignores case.
func HasAllowedExtension(filename string, allowed []string) bool {
	ext := Extension(filename)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}

// VerifyFileExists checks if file exists at the given path and is not a directory.
// Returns true if the file exists and is a regular file, false otherwise.
func VerifyFileExists(dir, filename string) bool {
	safePath := filepath.Join(dir, filename)
	info, err := os.Stat(safePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// GenerateStoreID creates a unique document store identifier using UUID v4.
func GenerateStoreID() string {
	return uuid.New().String()
}
