package storage

import (
	"strings"

	"github.com/m3rciful/clientdesk/internal/model"
	"github.com/m3rciful/clientdesk/internal/phone"
)

// suffixLen is the tail length used for the phone suffix predicate, guarding
// against local-format queries when the store holds full international form.
const suffixLen = 5

// QueryTerms derives the search terms from a raw query: the digit form used
// by the phone-contains predicate and the tail used by the suffix predicate.
// Phone predicates are skipped entirely when the digit form has length <= 1
// to avoid degenerate substring matches against every row.
func QueryTerms(query string) (digits, suffix string) {
	digits = strings.TrimPrefix(phone.Normalize(query), "+")
	if len(digits) <= 1 {
		return "", ""
	}
	if len(digits) >= suffixLen {
		suffix = digits[len(digits)-suffixLen:]
	}
	return digits, suffix
}

// MatchClient reports whether a client satisfies the search contract: the
// comment contains the raw query case-insensitively, OR any phone contains
// the normalized query digits, OR any phone ends with the query's last five
// digits.
func MatchClient(c *model.Client, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	if strings.Contains(strings.ToLower(c.Comment), strings.ToLower(query)) {
		return true
	}
	digits, suffix := QueryTerms(query)
	if digits == "" {
		return false
	}
	for _, p := range c.Phones {
		bare := strings.TrimPrefix(p, "+")
		if strings.Contains(bare, digits) {
			return true
		}
		if suffix != "" && strings.HasSuffix(bare, suffix) {
			return true
		}
	}
	return false
}
