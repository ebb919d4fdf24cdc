package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-registration-api/internal/dto"
	"github.com/noah-isme/sis-registration-api/internal/models"
	"github.com/noah-isme/sis-registration-api/internal/service"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
	"github.com/noah-isme/sis-registration-api/pkg/response"
)

type scheduleAutomator interface {
	AutoSchedule(ctx context.Context, req dto.AutoScheduleRequest) (*dto.ScheduleResult, error)
	BulkAutoSchedule(ctx context.Context, req dto.BulkAutoScheduleRequest) (*dto.BulkScheduleResult, error)
	ListEntries(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntry, models.TermRef, error)
	ListSlots(ctx context.Context, query dto.SlotQuery) ([]dto.SlotAvailability, error)
}

type slotSelector interface {
	Select(ctx context.Context, req dto.ManualSelectRequest) (*dto.ScheduleResult, error)
	Drop(ctx context.Context, req dto.DropEntryRequest) error
}

type timetableExporter interface {
	Export(ctx context.Context, query dto.ScheduleQuery, format string) (*service.TimetableFile, error)
}

type studentScheduleResponse struct {
	StudentID string                 `json:"studentId"`
	Term      models.TermRef         `json:"term"`
	Entries   []models.ScheduleEntry `json:"entries"`
}

// ScheduleHandler exposes the registration scheduling endpoints.
type ScheduleHandler struct {
	generator scheduleAutomator
	selector  slotSelector
	exporter  timetableExporter
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(generator *service.ScheduleGeneratorService, selector *service.SlotSelectionService, exporter *service.TimetableExportService) *ScheduleHandler {
	return &ScheduleHandler{generator: generator, selector: selector, exporter: exporter}
}

// AutoSchedule godoc
// @Summary Auto-schedule lecture and lab sessions for a course
// @Description Picks non-conflicting slots for the periods the student still needs. A partial result reports the shortfall.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.AutoScheduleRequest true "Auto schedule payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope "Course already fully scheduled"
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/auto [post]
func (h *ScheduleHandler) AutoSchedule(c *gin.Context) {
	var req dto.AutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid auto schedule payload"))
		return
	}
	if !ensureActingFor(c, req.StudentID) {
		return
	}

	result, err := h.generator.AutoSchedule(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, appErrors.ErrAlreadySatisfied) {
			response.JSON(c, http.StatusOK, gin.H{"studentId": req.StudentID, "courseId": req.CourseID, "entries": []models.ScheduleEntry{}}, nil,
				map[string]interface{}{"code": appErrors.ErrAlreadySatisfied.Code, "message": "nothing to do"})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil, map[string]interface{}{"partial": result.Partial})
}

// BulkAutoSchedule godoc
// @Summary Auto-schedule several courses in one request
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.BulkAutoScheduleRequest true "Bulk auto schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /schedules/auto/bulk [post]
func (h *ScheduleHandler) BulkAutoSchedule(c *gin.Context) {
	var req dto.BulkAutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk auto schedule payload"))
		return
	}
	if !ensureActingFor(c, req.StudentID) {
		return
	}

	result, err := h.generator.BulkAutoSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Select godoc
// @Summary Book or replace a single session
// @Description Books the session described by the payload. Selecting a catalog slot the student already holds replaces that entry.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.ManualSelectRequest true "Manual selection payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/select [post]
func (h *ScheduleHandler) Select(c *gin.Context) {
	var req dto.ManualSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot selection payload"))
		return
	}
	if !ensureActingFor(c, req.StudentID) {
		return
	}

	result, err := h.selector.Select(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// DropEntry godoc
// @Summary Drop a schedule entry
// @Tags Scheduling
// @Param id path string true "Schedule entry ID"
// @Param studentId query string false "Student ID (defaults to the caller)"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/entries/{id} [delete]
func (h *ScheduleHandler) DropEntry(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		if claims := claimsFromContext(c); claims != nil {
			studentID = claims.UserID
		}
	}
	if !ensureActingFor(c, studentID) {
		return
	}

	if err := h.selector.Drop(c.Request.Context(), dto.DropEntryRequest{StudentID: studentID, EntryID: c.Param("id")}); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentSchedule godoc
// @Summary List a student's schedule entries
// @Tags Scheduling
// @Produce json
// @Param id path string true "Student ID"
// @Param semester query int false "Semester"
// @Param academicYear query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/schedule [get]
func (h *ScheduleHandler) StudentSchedule(c *gin.Context) {
	query, ok := bindScheduleQuery(c)
	if !ok {
		return
	}

	entries, term, err := h.generator.ListEntries(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	response.JSON(c, http.StatusOK, studentScheduleResponse{StudentID: query.StudentID, Term: term, Entries: entries}, nil)
}

// ExportSchedule godoc
// @Summary Download a student's timetable
// @Tags Scheduling
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Student ID"
// @Param format query string false "pdf or csv" Enums(pdf, csv)
// @Param semester query int false "Semester"
// @Param academicYear query string false "Academic year"
// @Success 200 {file} file
// @Router /students/{id}/schedule/export [get]
func (h *ScheduleHandler) ExportSchedule(c *gin.Context) {
	query, ok := bindScheduleQuery(c)
	if !ok {
		return
	}

	file, err := h.exporter.Export(c.Request.Context(), query, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// CourseSlots godoc
// @Summary List offered slots of a course with remaining seats
// @Tags Scheduling
// @Produce json
// @Param id path string true "Course ID"
// @Param semester query int false "Semester"
// @Param academicYear query string false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/slots [get]
func (h *ScheduleHandler) CourseSlots(c *gin.Context) {
	var query dto.SlotQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot query"))
		return
	}
	query.CourseID = c.Param("id")

	slots, err := h.generator.ListSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

func bindScheduleQuery(c *gin.Context) (dto.ScheduleQuery, bool) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return query, false
	}
	query.StudentID = c.Param("id")
	return query, true
}
