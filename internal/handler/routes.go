package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Students   *StudentHandler
	Attendance *AttendanceHandler
	Reports    *ReportHandler
	Backups    *BackupHandler
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	api := r.Group(prefix)

	api.GET("/students", h.Students.List)
	api.POST("/students", h.Students.Create)
	api.GET("/students/:code", h.Students.Get)
	api.PUT("/students/:code", h.Students.Update)
	api.DELETE("/students/:code", h.Students.Delete)

	api.POST("/attendance", h.Attendance.Mark)
	api.GET("/attendance", h.Attendance.ListByDate)
	api.POST("/attendance/fill-absent", h.Attendance.FillAbsent)
	api.GET("/students/:code/attendance", h.Attendance.History)
	api.GET("/students/:code/attendance/last", h.Attendance.Last)
	api.GET("/students/:code/attendance/summary", h.Attendance.Summary)

	api.GET("/students/:code/report", h.Reports.Progress)
	api.GET("/students/:code/report/pdf", h.Reports.ExportPDF)

	api.GET("/backup/export", h.Backups.Export)
	api.POST("/backup/import", h.Backups.Import)
}
