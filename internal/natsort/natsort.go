// Package natsort orders strings the way people read them: runs of ASCII
// digits compare as integers and all other runs compare case-insensitively.
package natsort

import (
	"slices"
	"strings"
)

// Compare returns -1, 0 or +1 comparing a and b in natural order.
// Numeric runs sort before text runs at the same position. Strings whose
// keys are equal fall back to a byte-wise comparison so the order is total.
func Compare(a, b string) int {
	ka, kb := tokenize(a), tokenize(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := compareToken(ka[i], kb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b in natural order.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort sorts names in place in natural order.
func Sort(names []string) {
	slices.SortStableFunc(names, Compare)
}

type token struct {
	text    string
	numeric bool
}

func tokenize(s string) []token {
	var tokens []token
	start := 0
	for start < len(s) {
		digit := isDigit(s[start])
		end := start + 1
		for end < len(s) && isDigit(s[end]) == digit {
			end++
		}
		tok := token{text: s[start:end], numeric: digit}
		if !digit {
			tok.text = strings.ToLower(tok.text)
		}
		tokens = append(tokens, tok)
		start = end
	}
	return tokens
}

func compareToken(a, b token) int {
	switch {
	case a.numeric && b.numeric:
		return compareDigits(a.text, b.text)
	case a.numeric:
		return -1
	case b.numeric:
		return 1
	}
	return strings.Compare(a.text, b.text)
}

// compareDigits compares two digit runs by value without parsing, so runs
// longer than an int64 still order correctly.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
