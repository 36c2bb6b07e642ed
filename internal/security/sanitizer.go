package security

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy      = bluemonday.StrictPolicy()
	channelRegex    = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9_]{3,31}$`)
	channelURLRegex = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:t\.me|telegram\.me)/([A-Za-z0-9_]+)/?$`)
)

// AllowedKeyFileTypes are the upload extensions accepted for answer keys
var AllowedKeyFileTypes = []string{".xlsx"}

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Limit length without splitting a multibyte character
	if len(input) > 1000 {
		input = input[:1000]
		for !utf8.ValidString(input) {
			input = input[:len(input)-1]
		}
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeName cleans free text that is stored and later shown to others,
// such as full names and test titles. Tags are stripped and the entities
// bluemonday produces are decoded back so the stored value is plain text.
func SanitizeName(input string) string {
	clean := html.UnescapeString(SanitizeHTML(SanitizeString(input)))
	return strings.Join(strings.Fields(clean), " ")
}

// EscapeHTML makes stored text safe inside an HTML formatted message
func EscapeHTML(input string) string {
	return html.EscapeString(input)
}

// NormalizeChannelUsername accepts "@name", "name" or a t.me link and
// returns "@name". ok is false when the input is not a channel username.
func NormalizeChannelUsername(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if m := channelURLRegex.FindStringSubmatch(input); m != nil {
		input = m[1]
	}
	if !strings.HasPrefix(input, "@") {
		input = "@" + input
	}
	if !channelRegex.MatchString(input) {
		return "", false
	}
	return input, true
}

// ValidateFileType checks if file extension is allowed
func ValidateFileType(filename string, allowedTypes []string) bool {
	filename = strings.ToLower(filename)
	for _, ext := range allowedTypes {
		if strings.HasSuffix(filename, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// ValidateFileSize checks if file size is within limit
func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}
