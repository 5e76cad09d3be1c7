// Package validate normalizes extracted field sets and scores each field
// against the source text.
//
// The score is a best-effort corroboration check, not a correctness proof:
// an exact substring match of the extracted value in the source text scores
// high, a case-insensitive whitespace-collapsed match scores medium, and a
// value found nowhere in the source scores low — a signal the model may
// have hallucinated it despite the prompt rules.
package validate

import (
	"strconv"
	"strings"

	"docextract/pkg/models"
)

// Confidence levels assigned by Score.
const (
	High   = 0.95
	Medium = 0.7
	Low    = 0.2
)

// Normalize tidies field values: strings are whitespace-trimmed with
// internal runs collapsed, and strings that are plainly numeric are coerced
// to numbers. Nil values (explicit JSON null) pass through unchanged. The
// input map is not modified.
func Normalize(fields models.FieldSet) models.FieldSet {
	out := make(models.FieldSet, len(fields))
	for name, value := range fields {
		out[name] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	s = collapseWhitespace(strings.TrimSpace(s))
	if n, err := strconv.ParseFloat(s, 64); err == nil && isPlainNumber(s) {
		return n
	}
	return s
}

// isPlainNumber guards the numeric coercion: only bare decimal values are
// converted, so identifiers with leading zeros and formatted amounts like
// "$720.50" stay strings.
func isPlainNumber(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0' && !strings.HasPrefix(s, "0.")) {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' {
			return false
		}
	}
	return true
}

// Score derives a per-field confidence from a substring presence check of
// each value against the source text. The returned map has exactly the keys
// of fields — every field gets a score, including nulls (which cannot be
// corroborated and score low).
func Score(sourceText string, fields models.FieldSet) models.Confidence {
	scores := make(models.Confidence, len(fields))
	folded := collapseWhitespace(strings.ToLower(sourceText))

	for name, value := range fields {
		scores[name] = scoreValue(sourceText, folded, value)
	}
	return scores
}

func scoreValue(source, foldedSource string, value any) float64 {
	text := valueText(value)
	if text == "" {
		return Low
	}
	if strings.Contains(source, text) {
		return High
	}
	needle := collapseWhitespace(strings.ToLower(text))
	if needle != "" && strings.Contains(foldedSource, needle) {
		return Medium
	}
	return Low
}

// valueText renders a field value for matching against the source text.
func valueText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
