package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/service"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
	"github.com/campushub/scheduling-api/pkg/response"
)

// ExportHandler exposes export job and download endpoints.
type ExportHandler struct {
	service *service.ExportJobService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportJobService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Create queues a new export job.
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status reports export job progress.
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.service.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download streams a finished export behind its signed token.
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stat export file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeTypeFor(result.Filename), result.File, nil)
}

func mimeTypeFor(filename string) string {
	switch filepath.Ext(filename) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
