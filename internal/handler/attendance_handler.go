package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/service"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
	"github.com/fikri-aulia/tpq-santri-api/pkg/response"
)

const dateLayout = "2006-01-02"

// AttendanceHandler exposes daily attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Mark godoc
// @Summary Record attendance for one student and day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ListByDate godoc
// @Summary List all attendance for one day
// @Tags Attendance
// @Produce json
// @Param date query string true "Day (yyyy-mm-dd)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) ListByDate(c *gin.Context) {
	day, ok := h.parseDate(c, c.Query("date"))
	if !ok {
		return
	}
	rows, err := h.attendance.ListByDate(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// FillAbsent godoc
// @Summary Mark every unrecorded student absent for a held session day
// @Tags Attendance
// @Produce json
// @Param date query string true "Day (yyyy-mm-dd)"
// @Success 200 {object} response.Envelope
// @Router /attendance/fill-absent [post]
func (h *AttendanceHandler) FillAbsent(c *gin.Context) {
	inserted, err := h.attendance.FillAbsent(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"absent_rows": inserted}, nil)
}

// History godoc
// @Summary List one student's attendance between two days inclusive
// @Tags Attendance
// @Produce json
// @Param code path string true "Student code"
// @Param from query string true "Start day (yyyy-mm-dd)"
// @Param to query string true "End day (yyyy-mm-dd)"
// @Success 200 {object} response.Envelope
// @Router /students/{code}/attendance [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	from, ok := h.parseDate(c, c.Query("from"))
	if !ok {
		return
	}
	to, ok := h.parseDate(c, c.Query("to"))
	if !ok {
		return
	}
	rows, err := h.attendance.History(c.Request.Context(), c.Param("code"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Last godoc
// @Summary Get a student's most recent attendance row
// @Tags Attendance
// @Produce json
// @Param code path string true "Student code"
// @Success 200 {object} response.Envelope
// @Router /students/{code}/attendance/last [get]
func (h *AttendanceHandler) Last(c *gin.Context) {
	row, err := h.attendance.Last(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Summary godoc
// @Summary Aggregate presence and evaluation counts over a range
// @Tags Attendance
// @Produce json
// @Param code path string true "Student code"
// @Param from query string true "Start day (yyyy-mm-dd)"
// @Param to query string true "End day (yyyy-mm-dd)"
// @Success 200 {object} response.Envelope
// @Router /students/{code}/attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	from, ok := h.parseDate(c, c.Query("from"))
	if !ok {
		return
	}
	to, ok := h.parseDate(c, c.Query("to"))
	if !ok {
		return
	}
	summary, err := h.attendance.Summary(c.Request.Context(), c.Param("code"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func (h *AttendanceHandler) parseDate(c *gin.Context, raw string) (time.Time, bool) {
	day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be yyyy-mm-dd"))
		return time.Time{}, false
	}
	return models.TruncateDay(day), true
}
