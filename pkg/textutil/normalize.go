// Package textutil cleans up text scraped from HTML pages.
package textutil

import (
	"regexp"
	"strings"
)

// unsafeChars matches everything outside the filesystem-safe character class.
var unsafeChars = regexp.MustCompile(`[^0-9a-zA-Z\-.,_ ]`)

// Normalize trims text and collapses every run of whitespace into a single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeSafe strips characters outside [0-9a-zA-Z-.,_ ] before normalizing,
// producing a string that can be used as part of a file name.
func NormalizeSafe(text string) string {
	return Normalize(unsafeChars.ReplaceAllString(text, ""))
}

// Join is Normalize with a custom separator between the retained tokens.
func Join(text string, safe bool, separator string) string {
	if safe {
		text = unsafeChars.ReplaceAllString(text, "")
	}
	return strings.Join(strings.Fields(text), separator)
}
