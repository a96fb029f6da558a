package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/utils"
)

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(assessmentService services.AssessmentService, logger utils.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
	}
}

// ListAssessments returns a patient's assessments, newest first
// @Summary List patient assessments
// @Tags assessments
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {array} models.Assessment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /patients/{id}/assessments [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	assessments, err := h.assessmentService.ListByPatient(c.Request.Context(), currentUser(c), patientID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessments)
}

// SubmitAssessment stores a completed form
// @Summary Submit assessment
// @Description Validates the form state and records a new completed assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path string true "Patient ID"
// @Param form body object true "Form state keyed by field"
// @Success 201 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /patients/{id}/assessments [post]
func (h *AssessmentHandler) SubmitAssessment(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	var state map[string]any
	if !h.bindJSON(c, &state) {
		return
	}

	h.LogRequest(c, "Submitting assessment", "patient_id", patientID, "fields", len(state))

	assessment, err := h.assessmentService.Submit(c.Request.Context(), currentUser(c), patientID, state)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// GetAssessment retrieves an assessment by ID
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Getting assessment", "assessment_id", id)

	assessment, err := h.assessmentService.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}
