package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fikri-aulia/tpq-santri-api/internal/service"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
	"github.com/fikri-aulia/tpq-santri-api/pkg/response"
)

// ReportHandler exposes the rolling-window progress report.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Progress godoc
// @Summary Rolling 30-day progress report for one student
// @Tags Reports
// @Produce json
// @Param code path string true "Student code"
// @Param date query string false "Anchor day (yyyy-mm-dd), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /students/{code}/report [get]
func (h *ReportHandler) Progress(c *gin.Context) {
	today, ok := h.anchorDay(c)
	if !ok {
		return
	}
	report, err := h.reports.MonthlyProgress(c.Request.Context(), c.Param("code"), today)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportPDF godoc
// @Summary Render the progress report to PDF and store it in the exports dir
// @Tags Reports
// @Produce json
// @Param code path string true "Student code"
// @Param date query string false "Anchor day (yyyy-mm-dd), defaults to today"
// @Success 201 {object} response.Envelope
// @Router /students/{code}/report/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	today, ok := h.anchorDay(c)
	if !ok {
		return
	}
	result, err := h.exports.ExportProgressPDF(c.Request.Context(), c.Param("code"), today)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *ReportHandler) anchorDay(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), true
	}
	day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be yyyy-mm-dd"))
		return time.Time{}, false
	}
	return day, true
}
