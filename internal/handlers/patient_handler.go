package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PatientHandler struct {
	BaseHandler
	patientService services.PatientService
	exportService  services.ExportService
}

func NewPatientHandler(
	patientService services.PatientService,
	exportService services.ExportService,
	logger utils.Logger,
) *PatientHandler {
	return &PatientHandler{
		BaseHandler:    NewBaseHandler(logger),
		patientService: patientService,
		exportService:  exportService,
	}
}

func (h *PatientHandler) bindListQuery(c *gin.Context) (*services.PatientListRequest, bool) {
	var req services.PatientListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return nil, false
	}
	return &req, true
}

// ListPatients returns the doctor's roster with each patient's risk level.
// @Summary List patients
// @Tags patients
// @Produce json
// @Param search query string false "Name or ID substring"
// @Param risk query string false "all, high, moderate or low"
// @Success 200 {array} services.PatientSummary
// @Failure 403 {object} ErrorResponse
// @Router /patients [get]
func (h *PatientHandler) ListPatients(c *gin.Context) {
	req, ok := h.bindListQuery(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing patients", "search", req.Search, "risk", req.Risk)

	patients, err := h.patientService.ListPatients(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, patients)
}

// GetPatient retrieves a patient profile
// @Router /patients/{id} [get]
func (h *PatientHandler) GetPatient(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	patient, err := h.patientService.GetPatient(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

// GetDashboard returns the patient dashboard aggregate
// @Router /patients/{id}/dashboard [get]
func (h *PatientHandler) GetDashboard(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Getting patient dashboard", "patient_id", id)

	dashboard, err := h.patientService.Dashboard(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetTimeline returns health events newest first, optionally filtered by ?type=
// @Router /patients/{id}/timeline [get]
func (h *PatientHandler) GetTimeline(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	eventType, ok := parseEventType(c)
	if !ok {
		return
	}

	events, err := h.patientService.Timeline(c.Request.Context(), currentUser(c), id, eventType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetDoctorDashboard
// @Router /doctors/dashboard [get]
func (h *PatientHandler) GetDoctorDashboard(c *gin.Context) {
	req, ok := h.bindListQuery(c)
	if !ok {
		return
	}

	dashboard, err := h.patientService.DoctorDashboard(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// DownloadReport streams the patient workbook as an attachment.
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /patients/{id}/report.xlsx [get]
func (h *PatientHandler) DownloadReport(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Exporting patient report", "patient_id", id)

	data, fileName, err := h.exportService.PatientReport(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, xlsxContentType, data)
}
