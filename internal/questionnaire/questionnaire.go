// Package questionnaire holds the fixed question schedule of the assessment
// form: four pages, each an ordered list of questions bound to a form field.
package questionnaire

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Kind describes how an answer for a field is extracted and stored.
type Kind string

const (
	KindNumber Kind = "number"
	KindEnum   Kind = "enum"
	KindText   Kind = "text"
	KindList   Kind = "list"
)

const (
	LangKannada = "kn"
	LangEnglish = "en"
)

var (
	ErrPageNotFound     = errors.New("page not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrFieldNotFound    = errors.New("field not found")
)

//go:embed questionnaire.yaml
var embedded []byte

// Option is one selectable value of an enum or list field together with the
// keywords that select it.
type Option struct {
	Value    string   `yaml:"value" json:"value"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type Question struct {
	FieldKey string            `yaml:"field" json:"field"`
	Kind     Kind              `yaml:"kind" json:"kind"`
	Default  any               `yaml:"default,omitempty" json:"default,omitempty"`
	Prompts  map[string]string `yaml:"prompts" json:"prompts"`
	Options  []Option          `yaml:"options,omitempty" json:"options,omitempty"`
}

// Prompt returns the question text in lang, then English, then whatever
// language is available.
func (q *Question) Prompt(lang string) string {
	if p, ok := q.Prompts[lang]; ok && p != "" {
		return p
	}
	if p, ok := q.Prompts[LangEnglish]; ok && p != "" {
		return p
	}
	for _, p := range q.Prompts {
		if p != "" {
			return p
		}
	}
	return ""
}

type Page struct {
	Number    int        `yaml:"number" json:"number"`
	Title     string     `yaml:"title" json:"title"`
	Questions []Question `yaml:"questions" json:"questions"`
}

type Questionnaire struct {
	Pages []Page `yaml:"pages" json:"pages"`

	fields map[string]*Question
}

var (
	defaultOnce sync.Once
	defaultQ    *Questionnaire
)

// Default returns the embedded questionnaire. It panics if the embedded
// document is invalid.
func Default() *Questionnaire {
	defaultOnce.Do(func() {
		q, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("questionnaire: embedded definition: %v", err))
		}
		defaultQ = q
	})
	return defaultQ
}

// Parse decodes a questionnaire document and checks its structure.
func Parse(data []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to decode questionnaire: %w", err)
	}
	if err := q.index(); err != nil {
		return nil, err
	}
	return &q, nil
}

func (q *Questionnaire) index() error {
	if len(q.Pages) == 0 {
		return errors.New("questionnaire has no pages")
	}
	q.fields = make(map[string]*Question)
	for pi := range q.Pages {
		p := &q.Pages[pi]
		if p.Number != pi+1 {
			return fmt.Errorf("page %d is numbered %d", pi+1, p.Number)
		}
		for qi := range p.Questions {
			question := &p.Questions[qi]
			if question.FieldKey == "" {
				return fmt.Errorf("page %d question %d has no field", p.Number, qi)
			}
			if _, dup := q.fields[question.FieldKey]; dup {
				return fmt.Errorf("duplicate field %q", question.FieldKey)
			}
			switch question.Kind {
			case KindNumber, KindText:
			case KindEnum, KindList:
				if len(question.Options) == 0 {
					return fmt.Errorf("field %q has no options", question.FieldKey)
				}
			default:
				return fmt.Errorf("field %q has unknown kind %q", question.FieldKey, question.Kind)
			}
			q.fields[question.FieldKey] = question
		}
	}
	return nil
}

// PageCount returns the number of pages.
func (q *Questionnaire) PageCount() int {
	return len(q.Pages)
}

// Page returns page n, counting from 1.
func (q *Questionnaire) Page(n int) (*Page, error) {
	if n < 1 || n > len(q.Pages) {
		return nil, fmt.Errorf("%w: %d", ErrPageNotFound, n)
	}
	return &q.Pages[n-1], nil
}

// Question returns the question at index (0-based) on page (1-based).
func (q *Questionnaire) Question(page, index int) (*Question, error) {
	p, err := q.Page(page)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.Questions) {
		return nil, fmt.Errorf("%w: page %d index %d", ErrQuestionNotFound, page, index)
	}
	return &p.Questions[index], nil
}

func (q *Questionnaire) Field(key string) (*Question, error) {
	question, ok := q.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, key)
	}
	return question, nil
}

// Fields lists every field key in schedule order.
func (q *Questionnaire) Fields() []string {
	var keys []string
	for _, p := range q.Pages {
		for _, question := range p.Questions {
			keys = append(keys, question.FieldKey)
		}
	}
	return keys
}

// Defaults returns the initial form values: the declared default for
// questions that have one and an empty list for every list field.
func (q *Questionnaire) Defaults() map[string]any {
	values := make(map[string]any)
	for _, p := range q.Pages {
		for _, question := range p.Questions {
			switch {
			case question.Default != nil:
				values[question.FieldKey] = question.Default
			case question.Kind == KindList:
				values[question.FieldKey] = []string{}
			}
		}
	}
	return values
}
