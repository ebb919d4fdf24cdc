package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-registration-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sis-registration-api/internal/middleware"
	"github.com/noah-isme/sis-registration-api/internal/models"
	"github.com/noah-isme/sis-registration-api/internal/service"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
)

type schedulerMock struct {
	autoReq   dto.AutoScheduleRequest
	autoErr   error
	bulkReq   dto.BulkAutoScheduleRequest
	listQuery dto.ScheduleQuery
	slotQuery dto.SlotQuery
}

func (m *schedulerMock) AutoSchedule(ctx context.Context, req dto.AutoScheduleRequest) (*dto.ScheduleResult, error) {
	m.autoReq = req
	if m.autoErr != nil {
		return nil, m.autoErr
	}
	return &dto.ScheduleResult{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Entries:   []models.ScheduleEntry{{ID: "entry-1"}},
		Partial:   true,
		Shortfall: dto.Shortfall{LecturePeriods: 13},
	}, nil
}

func (m *schedulerMock) BulkAutoSchedule(ctx context.Context, req dto.BulkAutoScheduleRequest) (*dto.BulkScheduleResult, error) {
	m.bulkReq = req
	return &dto.BulkScheduleResult{StudentID: req.StudentID, Items: []dto.BulkScheduleItem{{CourseID: "course-1", Code: "NO_CANDIDATES"}}}, nil
}

func (m *schedulerMock) ListEntries(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntry, models.TermRef, error) {
	m.listQuery = query
	return nil, models.TermRef{Semester: 1, AcademicYear: "2024/2025"}, nil
}

func (m *schedulerMock) ListSlots(ctx context.Context, query dto.SlotQuery) ([]dto.SlotAvailability, error) {
	m.slotQuery = query
	return []dto.SlotAvailability{{AvailableSlot: models.AvailableSlot{ID: "slot-1"}, Remaining: 3}}, nil
}

type selectorMock struct {
	selectReq dto.ManualSelectRequest
	dropReq   dto.DropEntryRequest
	err       error
}

func (m *selectorMock) Select(ctx context.Context, req dto.ManualSelectRequest) (*dto.ScheduleResult, error) {
	m.selectReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ScheduleResult{StudentID: req.StudentID, Entries: []models.ScheduleEntry{{ID: "entry-1"}}}, nil
}

func (m *selectorMock) Drop(ctx context.Context, req dto.DropEntryRequest) error {
	m.dropReq = req
	return m.err
}

type exporterMock struct {
	format string
}

func (m *exporterMock) Export(ctx context.Context, query dto.ScheduleQuery, format string) (*service.TimetableFile, error) {
	m.format = format
	return &service.TimetableFile{Filename: "timetable.csv", ContentType: "text/csv", Body: []byte("Day\n")}, nil
}

type scheduleHandlerFixture struct {
	router    *gin.Engine
	scheduler *schedulerMock
	selector  *selectorMock
	exporter  *exporterMock
}

func newScheduleHandlerFixture(claims *models.JWTClaims) *scheduleHandlerFixture {
	gin.SetMode(gin.TestMode)
	f := &scheduleHandlerFixture{scheduler: &schedulerMock{}, selector: &selectorMock{}, exporter: &exporterMock{}}
	h := &ScheduleHandler{generator: f.scheduler, selector: f.selector, exporter: f.exporter}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(internalmiddleware.ContextUserKey, claims)
		}
		c.Next()
	})
	router.POST("/schedules/auto", h.AutoSchedule)
	router.POST("/schedules/auto/bulk", h.BulkAutoSchedule)
	router.POST("/schedules/select", h.Select)
	router.DELETE("/schedules/entries/:id", h.DropEntry)
	self := internalmiddleware.RBAC(string(models.RoleAdmin), internalmiddleware.RuleSelf)
	router.GET("/students/:id/schedule", self, h.StudentSchedule)
	router.GET("/students/:id/schedule/export", self, h.ExportSchedule)
	router.GET("/courses/:id/slots", h.CourseSlots)
	f.router = router
	return f
}

func (f *scheduleHandlerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestScheduleHandlerAutoSchedule(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))

	w := f.do(http.MethodPost, "/schedules/auto", dto.AutoScheduleRequest{StudentID: "student-1", CourseID: "course-1", Semester: 1, AcademicYear: "2024/2025"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "course-1", f.scheduler.autoReq.CourseID)
	assert.Equal(t, 1, f.scheduler.autoReq.Semester)

	payload := decodeEnvelope(t, w)
	meta := payload["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["partial"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(13), data["shortfall"].(map[string]interface{})["lecturePeriods"])
}

func TestScheduleHandlerAutoScheduleAlreadySatisfied(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))
	f.scheduler.autoErr = appErrors.Clone(appErrors.ErrAlreadySatisfied, "course CS101 is already fully scheduled")

	w := f.do(http.MethodPost, "/schedules/auto", dto.AutoScheduleRequest{StudentID: "student-1", CourseID: "course-1"})
	require.Equal(t, http.StatusOK, w.Code)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, "ALREADY_SATISFIED", meta["code"])
	assert.Equal(t, "nothing to do", meta["message"])
}

func TestScheduleHandlerAutoScheduleErrors(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))
	f.scheduler.autoErr = appErrors.Clone(appErrors.ErrWindowClosed, "")

	w := f.do(http.MethodPost, "/schedules/auto", dto.AutoScheduleRequest{StudentID: "student-1", CourseID: "course-1"})
	require.Equal(t, http.StatusForbidden, w.Code)
	errBody := decodeEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "WINDOW_CLOSED", errBody["code"])

	req, _ := http.NewRequest(http.MethodPost, "/schedules/auto", bytes.NewReader([]byte(`{"studentId":`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleHandlerRejectsActingForOthers(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))

	w := f.do(http.MethodPost, "/schedules/auto", dto.AutoScheduleRequest{StudentID: "student-2", CourseID: "course-1"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.scheduler.autoReq.StudentID)

	w = f.do(http.MethodPost, "/schedules/select", dto.ManualSelectRequest{StudentID: "student-2", CourseID: "course-1", SlotID: "slot-1"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/students/student-2/schedule", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	anonymous := newScheduleHandlerFixture(nil)
	w = anonymous.do(http.MethodPost, "/schedules/auto", dto.AutoScheduleRequest{StudentID: "student-1", CourseID: "course-1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleHandlerAdminActsForAnyStudent(t *testing.T) {
	f := newScheduleHandlerFixture(&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	w := f.do(http.MethodPost, "/schedules/auto/bulk", dto.BulkAutoScheduleRequest{StudentID: "student-9", CourseIDs: []string{"course-1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student-9", f.scheduler.bulkReq.StudentID)

	w = f.do(http.MethodGet, "/students/student-9/schedule?semester=2&academicYear=2024/2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ScheduleQuery{StudentID: "student-9", Semester: 2, AcademicYear: "2024/2025"}, f.scheduler.listQuery)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, data["entries"])
}

func TestScheduleHandlerSelect(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))

	w := f.do(http.MethodPost, "/schedules/select", dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "slot-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "slot-1", f.selector.selectReq.SlotID)

	f.selector.err = appErrors.Clone(appErrors.ErrTimeConflict, "")
	w = f.do(http.MethodPost, "/schedules/select", dto.ManualSelectRequest{StudentID: "student-1", CourseID: "course-1", SlotID: "slot-1"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TIME_CONFLICT", decodeEnvelope(t, w)["error"].(map[string]interface{})["code"])
}

func TestScheduleHandlerDropEntry(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))

	w := f.do(http.MethodDelete, "/schedules/entries/entry-1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, dto.DropEntryRequest{StudentID: "student-1", EntryID: "entry-1"}, f.selector.dropReq)

	w = f.do(http.MethodDelete, "/schedules/entries/entry-1?studentId=student-2", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	f.selector.err = appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
	w = f.do(http.MethodDelete, "/schedules/entries/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerExportSchedule(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))

	w := f.do(http.MethodGet, "/students/student-1/schedule/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", f.exporter.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")
	assert.Equal(t, "Day\n", w.Body.String())
}

func TestScheduleHandlerCourseSlots(t *testing.T) {
	f := newScheduleHandlerFixture(studentClaims("student-1"))

	w := f.do(http.MethodGet, "/courses/course-1/slots?semester=1&academicYear=2024/2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.SlotQuery{CourseID: "course-1", Semester: 1, AcademicYear: "2024/2025"}, f.scheduler.slotQuery)

	w = f.do(http.MethodGet, "/courses/course-1/slots?semester=first", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
