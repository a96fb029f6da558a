package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/utils"
)

type QuestionnaireHandler struct {
	BaseHandler
	q *questionnaire.Questionnaire
}

func NewQuestionnaireHandler(q *questionnaire.Questionnaire, logger utils.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		BaseHandler: NewBaseHandler(logger),
		q:           q,
	}
}

type questionView struct {
	Field   string                 `json:"field"`
	Kind    questionnaire.Kind     `json:"kind"`
	Prompt  string                 `json:"prompt"`
	Options []questionnaire.Option `json:"options,omitempty"`
}

type pageView struct {
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	Questions []questionView `json:"questions"`
}

type questionnaireView struct {
	Lang     string         `json:"lang"`
	Pages    []pageView     `json:"pages"`
	Defaults map[string]any `json:"defaults"`
}

// GetQuestionnaire returns the pages with prompts resolved for ?lang=
// (Kannada when omitted).
func (h *QuestionnaireHandler) GetQuestionnaire(c *gin.Context) {
	lang := c.DefaultQuery("lang", questionnaire.LangKannada)

	view := questionnaireView{
		Lang:     lang,
		Pages:    make([]pageView, 0, len(h.q.Pages)),
		Defaults: h.q.Defaults(),
	}
	for _, p := range h.q.Pages {
		pv := pageView{Number: p.Number, Title: p.Title, Questions: make([]questionView, 0, len(p.Questions))}
		for i := range p.Questions {
			question := &p.Questions[i]
			pv.Questions = append(pv.Questions, questionView{
				Field:   question.FieldKey,
				Kind:    question.Kind,
				Prompt:  question.Prompt(lang),
				Options: question.Options,
			})
		}
		view.Pages = append(view.Pages, pv)
	}

	c.JSON(http.StatusOK, view)
}
