package validator

import (
	"fmt"
	"strings"

	"github.com/neurosense/assessment-service/internal/questionnaire"
)

// FormValidator checks raw form state against the questionnaire table.
type FormValidator struct {
	q *questionnaire.Questionnaire
}

func NewFormValidator(q *questionnaire.Questionnaire) *FormValidator {
	return &FormValidator{q: q}
}

// Validate reports unknown fields, values of the wrong kind and enum or list
// values that are not options of their question. Empty values pass.
func (v *FormValidator) Validate(state map[string]any) ValidationErrors {
	var errs ValidationErrors
	for key, value := range state {
		question, err := v.q.Field(key)
		if err != nil {
			errs = append(errs, ValidationError{Field: key, Message: "is not a questionnaire field", Rule: "field"})
			continue
		}
		if msg := v.check(question, value); msg != "" {
			errs = append(errs, ValidationError{Field: key, Message: msg, Value: value, Rule: string(question.Kind)})
		}
	}
	return errs
}

func (v *FormValidator) check(q *questionnaire.Question, value any) string {
	if value == nil {
		return ""
	}
	switch q.Kind {
	case questionnaire.KindNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return ""
		}
		return "must be a number"
	case questionnaire.KindText:
		if _, ok := value.(string); !ok {
			return "must be text"
		}
	case questionnaire.KindEnum:
		s, ok := value.(string)
		if !ok {
			return "must be text"
		}
		if s != "" && !hasOption(q, s) {
			return "must be one of: " + optionList(q)
		}
	case questionnaire.KindList:
		items, ok := toStrings(value)
		if !ok {
			return "must be a list of text values"
		}
		for _, item := range items {
			if !hasOption(q, item) {
				return fmt.Sprintf("contains %q, must be one of: %s", item, optionList(q))
			}
		}
	}
	return ""
}

func hasOption(q *questionnaire.Question, value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func optionList(q *questionnaire.Question) string {
	values := make([]string, len(q.Options))
	for i, o := range q.Options {
		values[i] = o.Value
	}
	return strings.Join(values, ", ")
}

func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
