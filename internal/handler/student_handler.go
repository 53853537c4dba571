// Package handler wires HTTP endpoints to the service layer.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/service"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
	"github.com/fikri-aulia/tpq-santri-api/pkg/response"
)

// StudentHandler exposes santri record endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or code"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param code path string true "Student code"
// @Success 200 {object} response.Envelope
// @Router /students/{code} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.SaveStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.SaveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentCode = ""
	student, err := h.students.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Replace a student record
// @Tags Students
// @Accept json
// @Produce json
// @Param code path string true "Student code"
// @Param payload body service.SaveStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{code} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.SaveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentCode = c.Param("code")
	student, err := h.students.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete a student and their attendance
// @Tags Students
// @Param code path string true "Student code"
// @Success 204 "No Content"
// @Router /students/{code} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
