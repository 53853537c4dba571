package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/service"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
	"github.com/fikri-aulia/tpq-santri-api/pkg/response"
)

// BackupHandler exposes the bulk JSON snapshot endpoints.
type BackupHandler struct {
	backups *service.BackupService
}

// NewBackupHandler constructs BackupHandler.
func NewBackupHandler(backups *service.BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// Export godoc
// @Summary Export every student and attendance row as one JSON document
// @Tags Backup
// @Produce json
// @Success 200 {object} models.Backup
// @Router /backup/export [get]
func (h *BackupHandler) Export(c *gin.Context) {
	backup, err := h.backups.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	// The document itself is the payload so it can be re-imported verbatim.
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, backup)
}

// Import godoc
// @Summary Replay a backup document, inserting or replacing rows by identity
// @Tags Backup
// @Accept json
// @Produce json
// @Param payload body models.Backup true "Backup document"
// @Success 200 {object} response.Envelope
// @Router /backup/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	var backup models.Backup
	if err := c.ShouldBindJSON(&backup); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid backup document"))
		return
	}
	summary, err := h.backups.Import(c.Request.Context(), backup)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
