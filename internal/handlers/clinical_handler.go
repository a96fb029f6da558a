package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/utils"
)

// ClinicalHandler serves notes, medications, appointments and diagnostics
// nested under /patients/:id.
type ClinicalHandler struct {
	BaseHandler
	clinicalService services.ClinicalService
}

func NewClinicalHandler(clinicalService services.ClinicalService, logger utils.Logger) *ClinicalHandler {
	return &ClinicalHandler{
		BaseHandler:     NewBaseHandler(logger),
		clinicalService: clinicalService,
	}
}

// ===== NOTES =====

func (h *ClinicalHandler) ListNotes(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	notes, err := h.clinicalService.ListNotes(c.Request.Context(), currentUser(c), patientID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notes)
}

// AddNote
// @Summary Add clinical note
// @Tags clinical
// @Accept json
// @Param id path string true "Patient ID"
// @Param note body services.AddNoteRequest true "Note"
// @Success 201 {object} models.ClinicalNote
// @Router /patients/{id}/notes [post]
func (h *ClinicalHandler) AddNote(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	var req services.AddNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.PatientID = patientID

	h.LogRequest(c, "Adding clinical note", "patient_id", patientID, "note_type", req.NoteType)

	note, err := h.clinicalService.AddNote(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, note)
}

// ===== MEDICATIONS =====

func (h *ClinicalHandler) ListMedications(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	medications, err := h.clinicalService.ListMedications(c.Request.Context(), currentUser(c), patientID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, medications)
}

// AddMedication
// @Summary Prescribe medication
// @Tags clinical
// @Accept json
// @Param id path string true "Patient ID"
// @Param medication body services.AddMedicationRequest true "Medication"
// @Success 201 {object} models.Medication
// @Router /patients/{id}/medications [post]
func (h *ClinicalHandler) AddMedication(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	var req services.AddMedicationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.PatientID = patientID

	h.LogRequest(c, "Adding medication", "patient_id", patientID, "name", req.Name)

	medication, err := h.clinicalService.AddMedication(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, medication)
}

// StopMedication
// @Router /patients/{id}/medications/{med_id}/stop [post]
func (h *ClinicalHandler) StopMedication(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}
	medicationID := ParseStringIDParam(c, "med_id")
	if medicationID == "" {
		return
	}

	h.LogRequest(c, "Stopping medication", "patient_id", patientID, "medication_id", medicationID)

	medication, err := h.clinicalService.StopMedication(c.Request.Context(), currentUser(c), patientID, medicationID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, medication)
}

// ===== APPOINTMENTS =====

func (h *ClinicalHandler) ListAppointments(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	appointments, err := h.clinicalService.ListAppointments(c.Request.Context(), currentUser(c), patientID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointments)
}

func (h *ClinicalHandler) ScheduleAppointment(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	var req services.ScheduleAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.PatientID = patientID

	appointment, err := h.clinicalService.ScheduleAppointment(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// ===== DIAGNOSTICS =====

// RunDiagnostics accepts either JSON or a multipart form carrying the MRI
// upload in the "mri" part.
// @Summary Run diagnostic analysis
// @Tags clinical
// @Accept json,mpfd
// @Param id path string true "Patient ID"
// @Success 200 {object} services.DiagnosticsResult
// @Failure 400 {object} ErrorResponse
// @Router /patients/{id}/diagnostics [post]
func (h *ClinicalHandler) RunDiagnostics(c *gin.Context) {
	patientID := ParseStringIDParam(c, "id")
	if patientID == "" {
		return
	}

	var req services.DiagnosticsRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if !h.bindDiagnosticsForm(c, &req) {
			return
		}
	} else if !h.bindJSON(c, &req) {
		return
	}
	req.PatientID = patientID

	h.LogRequest(c, "Running diagnostics", "patient_id", patientID, "mri_file", req.MRIFileName)

	result, err := h.clinicalService.RunDiagnostics(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ClinicalHandler) bindDiagnosticsForm(c *gin.Context, req *services.DiagnosticsRequest) bool {
	if header, err := c.FormFile("mri"); err == nil {
		req.MRIFileName = header.Filename
	}

	var errs services.ValidationErrors
	if v := c.PostForm("mmse_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, *services.NewValidationError("mmse_score", "must be an integer", v))
		} else {
			req.MMSEScore = &n
		}
	}
	for field, dst := range map[string]**float64{
		"cdr_score":   &req.CDRScore,
		"csf_tau":     &req.CSFTau,
		"csf_abeta42": &req.CSFAbeta42,
	} {
		v := c.PostForm(field)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, *services.NewValidationError(field, "must be a number", v))
			continue
		}
		*dst = &f
	}
	req.APOE4Status = c.PostForm("apoe4_status")

	if len(errs) > 0 {
		h.handleServiceError(c, errs)
		return false
	}
	return true
}
