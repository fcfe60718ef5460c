package utils

import (
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F•()\s]`) // Invalid in filenames, plus the separators of a vrmId
var consecutiveUnderscores = regexp.MustCompile(`_+`)
const maxFilenameLength = 100

// SanitizeFilename turns a vrmId such as "Site • VRM-1 (10.0.0.1)" into a safe file name stem
func SanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")
	sanitized = consecutiveUnderscores.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_ ")

	if len(sanitized) > maxFilenameLength {
		sanitized = strings.Trim(strings.ToValidUTF8(sanitized[:maxFilenameLength], ""), "_ ")
	}

	if sanitized == "" {
		sanitized = "untitled"
	}
	return sanitized
}
