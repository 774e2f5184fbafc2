package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/lesson-scheduler-api/pkg/errors"
	"github.com/noah-isme/lesson-scheduler-api/pkg/response"
)

// LessonHandler manages lesson endpoints.
type LessonHandler struct {
	service *service.LessonService
	exports *service.ExportService
}

// NewLessonHandler constructs handler.
func NewLessonHandler(svc *service.LessonService, exports *service.ExportService) *LessonHandler {
	return &LessonHandler{service: svc, exports: exports}
}

// List godoc
// @Summary List all lessons
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	lessons, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Get godoc
// @Summary Get a lesson by id
// @Tags Lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.BadRequest("lesson id must be a number"))
		return
	}
	lesson, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Filtered godoc
// @Summary List lessons matching a filter
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.FilterLessonsRequest false "Filter payload"
// @Success 200 {object} response.Envelope
// @Router /filtered_lessons [post]
func (h *LessonHandler) Filtered(c *gin.Context) {
	req, ok := h.bindFilter(c)
	if !ok {
		return
	}
	views, pagination, err := h.service.ListFiltered(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, pagination)
}

// CreateSeries godoc
// @Summary Create a recurring lesson series
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateSeriesRequest true "Series payload"
// @Success 200 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) CreateSeries(c *gin.Context) {
	var req service.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid series payload"))
		return
	}
	lessons, err := h.service.CreateSeries(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Export godoc
// @Summary Export filtered lessons as CSV or PDF
// @Tags Lessons
// @Accept json
// @Produce text/csv
// @Param format query string false "csv or pdf"
// @Param payload body service.FilterLessonsRequest false "Filter payload"
// @Success 200 {file} binary
// @Router /filtered_lessons/export [post]
func (h *LessonHandler) Export(c *gin.Context) {
	req, ok := h.bindFilter(c)
	if !ok {
		return
	}
	views, _, err := h.service.ListFiltered(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.Render(views, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// bindFilter reads the optional JSON filter body. The legacy client issued
// GET requests with a body, so an absent body means an empty filter.
func (h *LessonHandler) bindFilter(c *gin.Context) (service.FilterLessonsRequest, bool) {
	var req service.FilterLessonsRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter payload"))
			return req, false
		}
	}
	return req, true
}
