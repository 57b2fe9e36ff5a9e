package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/internal/service"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
	"github.com/campushub/scheduling-api/pkg/response"
)

// InstructorHandler exposes instructor roster endpoints.
type InstructorHandler struct {
	service *service.InstructorService
}

// NewInstructorHandler constructs an instructor handler.
func NewInstructorHandler(svc *service.InstructorService) *InstructorHandler {
	return &InstructorHandler{service: svc}
}

// List returns instructors with pagination.
func (h *InstructorHandler) List(c *gin.Context) {
	var filter models.InstructorFilter
	filter.Department = c.Query("department")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	instructors, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, pagination)
}

// Get returns one instructor.
func (h *InstructorHandler) Get(c *gin.Context) {
	instructor, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// Create registers an instructor with availability windows.
func (h *InstructorHandler) Create(c *gin.Context) {
	var req dto.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// ReplaceWindows swaps the instructor's declared availability.
func (h *InstructorHandler) ReplaceWindows(c *gin.Context) {
	var reqs []dto.AvailabilityWindowRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.service.ReplaceWindows(c.Request.Context(), c.Param("id"), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// AddOverride blocks part of the instructor's availability.
func (h *InstructorHandler) AddOverride(c *gin.Context) {
	var req dto.UnavailableOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	override, err := h.service.AddOverride(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, override)
}

// Delete removes an instructor.
func (h *InstructorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
