package model

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameLength caps resolved names, extension excluded, in bytes.
const MaxFileNameLength = 200

var (
	invalidChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)
	whitespace    = regexp.MustCompile(`\s+`)
	reservedNames = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
)

// ResolveFileName builds a file name, without extension, from a naming
// template.
//
// Supported placeholders:
//   - {trackno} - order, zero-padded to at least 2 digits
//   - {name} - the sanitized title, or the sanitized id when the title is empty
//
// Unknown placeholders are kept verbatim. The result is sanitized as a whole
// and is never empty: it falls back to the id and finally to "track".
//
// Example:
//
//	ResolveFileName("{trackno} - {name}", 3, "My: Song?", "abc") // "03 - My Song"
func ResolveFileName(template string, order int, title, id string) string {
	name := SanitizeFileName(title)
	if name == "" {
		name = SanitizeFileName(id)
	}

	r := strings.NewReplacer(
		"{trackno}", fmt.Sprintf("%02d", order),
		"{name}", name,
	)
	fileName := SanitizeFileName(r.Replace(template))

	if fileName == "" {
		fileName = SanitizeFileName(id)
	}
	if fileName == "" {
		fileName = "track"
	}
	return fileName
}

// SanitizeFileName removes characters that are invalid in file names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are removed
//   - Unicode controls (C1 range such as U+0085) and bidi marks are removed
//   - Multiple whitespace is collapsed to single space
//   - Leading whitespace and trailing dots/whitespace are removed
//   - Windows device names (CON, NUL, COM1...) get an underscore appended
//   - Names longer than MaxFileNameLength bytes are cut on a rune boundary
//
// Applying SanitizeFileName to its own output returns the output unchanged.
func SanitizeFileName(name string) string {
	name = whitespace.ReplaceAllString(name, " ")
	name = invalidChars.ReplaceAllString(name, "")
	name = strings.Map(dropControl, name)
	name = whitespace.ReplaceAllString(name, " ")
	name = trimName(name)
	name = reservedNames.ReplaceAllString(name, "${1}_${2}")

	if len(name) > MaxFileNameLength {
		name = trimName(truncate(name, MaxFileNameLength))
	}
	return name
}

func dropControl(r rune) rune {
	if unicode.IsControl(r) || isBidiControl(r) {
		return -1
	}
	return r
}

// isBidiControl reports direction marks, embeddings, overrides and isolates.
func isBidiControl(r rune) bool {
	switch {
	case r == '\u200e', r == '\u200f', r == '\u061c':
		return true
	case r >= '\u202a' && r <= '\u202e':
		return true
	case r >= '\u2066' && r <= '\u2069':
		return true
	}
	return false
}

func trimName(name string) string {
	name = strings.TrimLeft(name, " ")
	return strings.TrimRight(name, ". ")
}

func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
