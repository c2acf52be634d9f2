package utils

import (
	"fmt"
	"regexp"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFilename replaces characters that are unsafe in storage paths.
func SanitizeFilename(filename string) string {
	return unsafeFilenameChars.ReplaceAllString(filename, "_")
}

// GenerateFilePath builds a unique storage path for a user's upload.
func GenerateFilePath(userID, filename string) string {
	return fmt.Sprintf("%s/%d_%s", userID, time.Now().UnixMilli(), SanitizeFilename(filename))
}
