package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	"github.com/noah-isme/hr-onboarding-api/pkg/response"
)

type profileService interface {
	Assemble(ctx context.Context, employeeID string) (*models.OnboardingProfile, error)
}

type profileExporter interface {
	Profile(ctx context.Context, employeeID, format string) (*service.ExportFile, error)
}

// EmployeeHandler serves employee onboarding profiles.
type EmployeeHandler struct {
	profiles profileService
	exports  profileExporter
}

// NewEmployeeHandler constructs the handler.
func NewEmployeeHandler(profiles profileService, exports profileExporter) *EmployeeHandler {
	return &EmployeeHandler{profiles: profiles, exports: exports}
}

// Profile godoc
// @Summary Onboarding profile with masked document slots
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/profile [get]
func (h *EmployeeHandler) Profile(c *gin.Context) {
	profile, err := h.profiles.Assemble(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ExportProfile godoc
// @Summary Export onboarding profile
// @Tags Employees
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Employee ID"
// @Param format query string false "pdf or csv"
// @Success 200 {file} binary
// @Router /employees/{id}/profile/export [get]
func (h *EmployeeHandler) ExportProfile(c *gin.Context) {
	file, err := h.exports.Profile(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", service.ExportFormatPDF))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
