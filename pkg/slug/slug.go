// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns arbitrary Unicode display names into plain ASCII.
//
// # Usage
//
// Song titles and artist names reach HTTP headers through [Filename], which
// keeps them readable for clients that ignore the RFC 5987 filename* form.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// placeholder replaces characters that have no ASCII rendering.
const placeholder = '_'

// Filename converts a Unicode filename into a printable ASCII one that is
// safe inside a quoted header parameter.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Replaces quotes, backslashes, control and non-ASCII characters with '_'.
// 4. Collapses runs of whitespace into a single space.
func Filename(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	// 2. Map what is left onto printable ASCII
	result = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r == '"' || r == '\\' || r < 0x20 || r > 0x7e:
			return placeholder
		}
		return r
	}, result)

	// 3. Tidy whitespace
	return strings.Join(strings.Fields(result), " ")
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
