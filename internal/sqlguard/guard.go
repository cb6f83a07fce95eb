// Package sqlguard is the static pre-execution safety gate.
//
// It deliberately shares no state with the SQL generator: the gate defends
// against a flawed or tampered generator, not against the language model,
// so it re-checks every bundle lexically even though the generator already
// promises SELECT-only output. One bad query rejects the whole bundle — a
// bundle is the atomic unit of a run's reproducibility record.
package sqlguard

import (
	"regexp"
	"strings"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

// Safety rule identifiers carried in SQLRejectedError.
const (
	RuleEmptyQuery         = "empty_query"
	RuleNotSelect          = "not_select"
	RuleStatementSeparator = "statement_separator"
	RuleBlacklistedKeyword = "blacklisted_keyword"
)

// blacklistRe matches any forbidden keyword as a whole word, case-insensitively.
var blacklistRe = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|COPY|ATTACH|PRAGMA|EXEC)\b`)

// ValidateBundle checks every query in the bundle and returns a
// SQLRejectedError on the first violation. The bundle passes through
// unchanged; normalization happens only for comparison, never on the SQL
// that will execute.
func ValidateBundle(b *domain.SQLBundle) error {
	for _, q := range b.Queries() {
		if err := validateQuery(q); err != nil {
			return err
		}
	}
	return nil
}

func validateQuery(q string) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return &domain.SQLRejectedError{Query: q, Rule: RuleEmptyQuery}
	}

	if !strings.EqualFold(firstWord(trimmed), "SELECT") {
		return &domain.SQLRejectedError{Query: q, Rule: RuleNotSelect}
	}

	if strings.Contains(trimmed, ";") {
		return &domain.SQLRejectedError{Query: q, Rule: RuleStatementSeparator}
	}

	if blacklistRe.MatchString(trimmed) {
		return &domain.SQLRejectedError{Query: q, Rule: RuleBlacklistedKeyword}
	}

	return nil
}

// firstWord returns the leading run of non-whitespace characters.
func firstWord(s string) string {
	if i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }); i >= 0 {
		return s[:i]
	}
	return s
}
