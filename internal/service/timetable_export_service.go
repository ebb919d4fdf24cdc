package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-registration-api/internal/dto"
	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
	"github.com/noah-isme/sis-registration-api/pkg/export"
)

// Supported timetable export formats.
const (
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"
)

var timetableHeaders = []string{"Day", "Periods", "Part", "Kind", "Course", "Room"}

var dayNames = map[int]string{1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday", 5: "Friday", 6: "Saturday", 7: "Sunday"}

type timetableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

type timetableEntryReader interface {
	ListByStudentTerm(ctx context.Context, studentID string, term models.TermRef) ([]models.ScheduleEntry, error)
}

// TimetableFile is a rendered timetable ready for download.
type TimetableFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TimetableExportService renders a student's term timetable as PDF or CSV.
type TimetableExportService struct {
	terms     activeTermReader
	entries   timetableEntryReader
	courses   scheduleCourseReader
	renderers map[string]timetableRenderer
	logger    *zap.Logger
}

// NewTimetableExportService constructs the service; nil renderers fall back to the pkg/export defaults.
func NewTimetableExportService(terms activeTermReader, entries timetableEntryReader, courses scheduleCourseReader, pdf, csv timetableRenderer, logger *zap.Logger) *TimetableExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &TimetableExportService{
		terms:     terms,
		entries:   entries,
		courses:   courses,
		renderers: map[string]timetableRenderer{ExportFormatPDF: pdf, ExportFormatCSV: csv},
		logger:    logger,
	}
}

// Export renders the timetable in the requested format.
func (s *TimetableExportService) Export(ctx context.Context, query dto.ScheduleQuery, format string) (*TimetableFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatPDF
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if query.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	term, err := resolveTerm(ctx, s.terms, query.Semester, query.AcademicYear)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByStudentTerm(ctx, query.StudentID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedule")
	}

	dataset := export.Dataset{
		Title:    "Student Timetable",
		Subtitle: fmt.Sprintf("Student %s - Semester %d %s", query.StudentID, term.Semester, term.AcademicYear),
		Headers:  timetableHeaders,
		Rows:     make([]map[string]string, 0, len(entries)),
	}
	labels := map[string]string{}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":     dayName(entry.DayOfWeek),
			"Periods": fmt.Sprintf("%d-%d", entry.StartPeriod, entry.StartPeriod+entry.PeriodLength-1),
			"Part":    string(entry.DayPart),
			"Kind":    string(entry.SessionKind),
			"Course":  s.courseLabel(ctx, labels, entry.CourseID),
			"Room":    entry.Room,
		})
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	filename := fmt.Sprintf("timetable-%s-%d-%s.%s", query.StudentID, term.Semester, strings.ReplaceAll(term.AcademicYear, "/", "-"), renderer.Extension())
	return &TimetableFile{Filename: filename, ContentType: renderer.ContentType(), Body: body}, nil
}

// courseLabel resolves "CODE Name" once per course; lookup failures fall back to the id.
func (s *TimetableExportService) courseLabel(ctx context.Context, cache map[string]string, courseID string) string {
	if label, ok := cache[courseID]; ok {
		return label
	}
	label := courseID
	if course, err := s.courses.FindByID(ctx, courseID); err == nil {
		label = strings.TrimSpace(course.Code + " " + course.Name)
	} else {
		s.logger.Debug("course lookup failed during export", zap.String("course_id", courseID), zap.Error(err))
	}
	cache[courseID] = label
	return label
}

func dayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return fmt.Sprintf("Day %d", day)
}
