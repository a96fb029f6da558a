package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/models"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parseEventType reads the optional ?type= timeline filter.
func parseEventType(c *gin.Context) (*models.HealthEventType, bool) {
	raw := strings.TrimSpace(c.Query("type"))
	if raw == "" || raw == "all" {
		return nil, true
	}
	t := models.HealthEventType(raw)
	switch t {
	case models.EventTypeAssessment, models.EventTypeDiagnosis, models.EventTypeMedication,
		models.EventTypeNote, models.EventTypeFollowUp:
		return &t, true
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: "Invalid type",
		Details: "unknown health event type: " + raw,
	})
	return nil, false
}
