package util

import (
	"errors"
	"strings"
	"unicode"
)

// MaxFileNameRunes bounds the uploaded name kept in object keys.
const MaxFileNameRunes = 100

// ErrInvalidFileName rejects names that cannot become a key segment.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns an uploaded file name into a single safe key segment:
// separators become '_', control characters are dropped and the result is capped
// at MaxFileNameRunes runes with the extension preserved.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", ErrInvalidFileName
	}

	runes := []rune(cleaned)
	if len(runes) <= MaxFileNameRunes {
		return cleaned, nil
	}
	var ext []rune
	if i := strings.LastIndexByte(cleaned, '.'); i > 0 && len(cleaned)-i <= 10 {
		ext = []rune(cleaned[i:])
	}
	return string(runes[:MaxFileNameRunes-len(ext)]) + string(ext), nil
}
