// Package utils provides common text and URL helpers.
package utils

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeWhitespace collapses runs of whitespace to a single space and trims the ends.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// Truncate cuts str to at most maxRunes runes.
func Truncate(str string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	if utf8.RuneCountInString(str) <= maxRunes {
		return str
	}

	runes := []rune(str)

	return string(runes[:maxRunes])
}

// CountDigits returns how many decimal digits str contains.
func CountDigits(str string) int {
	n := 0

	for _, r := range str {
		if r >= '0' && r <= '9' {
			n++
		}
	}

	return n
}

// StripChars removes every rune of cutset from str.
func StripChars(str, cutset string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(cutset, r) || unicode.IsSpace(r) && strings.ContainsRune(cutset, ' ') {
			return -1
		}

		return r
	}, str)
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}
