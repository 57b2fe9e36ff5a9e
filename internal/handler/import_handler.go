package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/service"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
	"github.com/campushub/scheduling-api/pkg/response"
)

// ImportHandler exposes CSV roster upload endpoints.
type ImportHandler struct {
	service *service.RosterService
}

// NewImportHandler constructs an import handler.
func NewImportHandler(svc *service.RosterService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Courses imports a course roster CSV.
func (h *ImportHandler) Courses(c *gin.Context) {
	h.runImport(c, h.service.ImportCourses)
}

// Instructors imports an instructor roster CSV.
func (h *ImportHandler) Instructors(c *gin.Context) {
	h.runImport(c, h.service.ImportInstructors)
}

// Rooms imports a room inventory CSV.
func (h *ImportHandler) Rooms(c *gin.Context) {
	h.runImport(c, h.service.ImportRooms)
}

// Students imports a student roster CSV.
func (h *ImportHandler) Students(c *gin.Context) {
	h.runImport(c, h.service.ImportStudents)
}

func (h *ImportHandler) runImport(c *gin.Context, importer func(context.Context, io.Reader) (*dto.ImportSummary, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "open upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	summary, err := importer(c.Request.Context(), src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
