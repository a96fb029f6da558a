package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionnaireHandler(t *testing.T) {
	ts := newTestServer(t)

	t.Run("DefaultsToKannada", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/questionnaire", "patient-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		view := decode[questionnaireView](t, w)
		assert.Equal(t, "kn", view.Lang)
		require.Len(t, view.Pages, 4)
		assert.Equal(t, "age", view.Pages[0].Questions[0].Field)
		assert.Equal(t, "ನಿಮ್ಮ ವಯಸ್ಸು ಎಷ್ಟು?", view.Pages[0].Questions[0].Prompt)
		assert.EqualValues(t, 65, view.Defaults["age"])
	})

	t.Run("English", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/questionnaire?lang=en", "patient-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "How old are you?", decode[questionnaireView](t, w).Pages[0].Questions[0].Prompt)
	})
}
