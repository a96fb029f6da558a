package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/utils"
)

type SpeechHandler struct {
	BaseHandler
	speechService services.SpeechService
}

func NewSpeechHandler(speechService services.SpeechService, logger utils.Logger) *SpeechHandler {
	return &SpeechHandler{
		BaseHandler:   NewBaseHandler(logger),
		speechService: speechService,
	}
}

// Transcribe relays a base64 clip to the speech-to-text providers.
// Provider failures answer 500 with a bare {"error": ...} body that browser
// clients surface verbatim.
// @Summary Transcribe audio
// @Tags speech
// @Accept json
// @Produce json
// @Param clip body services.TranscribeRequest true "Base64 audio"
// @Success 200 {object} speech.Transcription
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} map[string]string
// @Router /speech/transcribe [post]
func (h *SpeechHandler) Transcribe(c *gin.Context) {
	var req services.TranscribeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.speechService.Transcribe(c.Request.Context(), &req)
	if err != nil {
		if services.IsValidation(err) {
			h.handleServiceError(c, err)
			return
		}
		h.LogError(c, err, "Transcription failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Synthesize
// @Router /speech/synthesize [post]
func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req services.SynthesizeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.speechService.Synthesize(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Extract runs the answer extractor for one field against free text.
// @Router /speech/extract [post]
func (h *SpeechHandler) Extract(c *gin.Context) {
	var req services.ExtractRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.speechService.Extract(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
