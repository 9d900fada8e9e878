// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package username canonicalizes account names before they are stored or
// looked up.
//
// # Usage
//
// Registration and login both pass the submitted name through [Canonical], so
// compatibility variants (full-width letters, ligatures, stray zero-width
// characters) resolve to the same account. Letter case is preserved.
package username

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical returns the NFKC form of name with invisible format characters
// removed and surrounding whitespace trimmed.
//
// # Transformation Pipeline
//
// 1. Removes Unicode format characters (Cf), e.g. U+200B ZERO WIDTH SPACE.
// 2. Normalizes to NFKC (ｂｏｂ → bob, ﬁ → fi).
// 3. Trims leading and trailing whitespace.
func Canonical(name string) string {
	t := transform.Chain(transform.RemoveFunc(isFormat), norm.NFKC)
	result, _, err := transform.String(t, name)
	if err != nil {
		// Only invalid UTF-8 can fail here; fall back to plain NFKC.
		result = norm.NFKC.String(name)
	}
	return strings.TrimSpace(result)
}

// isFormat reports whether r is an invisible formatting character.
func isFormat(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}
