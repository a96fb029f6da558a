// Package extractor maps a free-form spoken answer onto a typed form value
// using the option tables of the questionnaire.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/neurosense/assessment-service/internal/questionnaire"
)

var digits = regexp.MustCompile(`\d+`)

// Answer is a structured value extracted for one field.
type Answer struct {
	Field string             `json:"field"`
	Kind  questionnaire.Kind `json:"kind"`
	Value any                `json:"value"`
}

type Extractor struct {
	q *questionnaire.Questionnaire
}

func New(q *questionnaire.Questionnaire) *Extractor {
	return &Extractor{q: q}
}

// Extract returns the value for field found in text. The second result is
// false when nothing matched or the field is unknown; callers must then leave
// the form untouched.
func (e *Extractor) Extract(text, field string) (Answer, bool) {
	question, err := e.q.Field(field)
	if err != nil {
		return Answer{}, false
	}

	answer := Answer{Field: field, Kind: question.Kind}
	switch question.Kind {
	case questionnaire.KindNumber:
		n, ok := extractNumber(text)
		if !ok {
			return Answer{}, false
		}
		answer.Value = n
	case questionnaire.KindEnum:
		v, ok := firstMatch(text, question.Options)
		if !ok {
			return Answer{}, false
		}
		answer.Value = v
	case questionnaire.KindList:
		vs := allMatches(text, question.Options)
		if len(vs) == 0 {
			return Answer{}, false
		}
		answer.Value = vs
	case questionnaire.KindText:
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return Answer{}, false
		}
		answer.Value = trimmed
	default:
		return Answer{}, false
	}
	return answer, true
}

func extractNumber(text string) (int, bool) {
	if m := digits.FindString(normalizeDigits(text)); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n, true
		}
	}
	return parseNumberWords(text)
}

func firstMatch(text string, options []questionnaire.Option) (string, bool) {
	lower := strings.ToLower(text)
	for _, opt := range options {
		if matches(lower, opt) {
			return opt.Value, true
		}
	}
	return "", false
}

func allMatches(text string, options []questionnaire.Option) []string {
	lower := strings.ToLower(text)
	var values []string
	for _, opt := range options {
		if matches(lower, opt) {
			values = append(values, opt.Value)
		}
	}
	return values
}

func matches(lower string, opt questionnaire.Option) bool {
	for _, kw := range opt.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// normalizeDigits rewrites Kannada digits (U+0CE6..U+0CEF) as ASCII.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '೦' && r <= '೯' {
			return '0' + (r - '೦')
		}
		return r
	}, s)
}
