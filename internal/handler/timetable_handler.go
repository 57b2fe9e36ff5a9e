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

// TimetableHandler exposes timetable lifecycle endpoints.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// List returns timetables with pagination.
func (h *TimetableHandler) List(c *gin.Context) {
	var filter models.TimetableFilter
	filter.Semester = c.Query("semester")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	timetables, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, timetables, pagination)
}

// Get returns one timetable with its sessions.
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, sessions, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"timetable": timetable, "sessions": sessions}, nil)
}

// Create registers a new empty timetable.
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	timetable, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// Solve runs one solve pass and replaces the timetable's sessions.
func (h *TimetableHandler) Solve(c *gin.Context) {
	var req dto.SolveTimetableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	result, err := h.service.Solve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Conflicts scans the persisted sessions for invariant violations.
func (h *TimetableHandler) Conflicts(c *gin.Context) {
	result, err := h.service.Conflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Statistics returns the aggregated rollup for a timetable.
func (h *TimetableHandler) Statistics(c *gin.Context) {
	result, err := h.service.Statistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Clear deletes every session of the timetable.
func (h *TimetableHandler) Clear(c *gin.Context) {
	result, err := h.service.Clear(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
