// Package phone canonicalizes free-form phone input and extracts phone-like
// tokens out of mixed text.
package phone

import (
	"regexp"
	"strings"
)

// tokenRe matches phone-like substrings: an optional '+' followed by at least
// five characters drawn from digits, spaces, hyphens, and parentheses.
var tokenRe = regexp.MustCompile(`\+?[0-9 ()\-]{5,}`)

// minExtractDigits is the minimum digit count for an extracted token to count
// as a phone rather than stray numbers in a comment.
const minExtractDigits = 5

// MinPhoneDigits is the minimum digit count for a standalone phone input.
const MinPhoneDigits = 6

// Normalize reduces s to its digits, preserving at most one leading '+' when
// the input starts with one or more '+' characters. Input without any digits
// normalizes to the empty string.
func Normalize(s string) string {
	trimmed := strings.TrimSpace(s)
	hasPlus := strings.HasPrefix(trimmed, "+")

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if hasPlus {
		return "+" + digits
	}
	return digits
}

// NormalizeList normalizes every entry, drops empties, and deduplicates
// preserving first-seen order.
func NormalizeList(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n := Normalize(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Digits returns the digit count of a normalized phone.
func Digits(normalized string) int {
	return len(strings.TrimPrefix(normalized, "+"))
}

// Extract finds phone-like tokens in text, normalizes and deduplicates them,
// and returns the leftover text with the matched substrings removed and edge
// punctuation trimmed. The remainder is the candidate comment.
func Extract(text string) (phones []string, remainder string) {
	var raw []string
	rest := tokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		if Digits(Normalize(tok)) < minExtractDigits {
			return tok
		}
		raw = append(raw, tok)
		return " "
	})
	phones = NormalizeList(raw)
	fields := strings.Fields(rest)
	kept := fields[:0]
	for _, f := range fields {
		if strings.Trim(f, ",.;:-—()") == "" {
			continue
		}
		kept = append(kept, f)
	}
	remainder = strings.TrimFunc(strings.Join(kept, " "), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', ';', ':', '-', '—':
			return true
		}
		return false
	})
	return phones, remainder
}

// FormatDisplay groups a normalized phone into readable blocks for reply
// text. Storage and comparison always use the normalized form.
func FormatDisplay(normalized string) string {
	prefix := ""
	digits := normalized
	if strings.HasPrefix(normalized, "+") {
		prefix = "+"
		digits = normalized[1:]
	}
	if len(digits) < 9 {
		return normalized
	}
	groups := []int{2, 2, 3}
	parts := make([]string, 0, len(groups)+1)
	rest := digits
	for _, g := range groups {
		parts = append(parts, rest[len(rest)-g:])
		rest = rest[:len(rest)-g]
	}
	parts = append(parts, rest)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return prefix + strings.Join(parts, " ")
}
