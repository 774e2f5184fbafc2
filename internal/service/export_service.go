package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/lesson-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/lesson-scheduler-api/pkg/errors"
	"github.com/noah-isme/lesson-scheduler-api/pkg/export"
)

// Export formats supported for filtered lesson listings.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var lessonExportHeaders = []string{"ID", "Date", "Title", "Status", "Teachers", "Students", "Visits"}

// ExportService renders filtered lesson views into downloadable documents.
type ExportService struct {
	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewExportService constructs an export service.
func NewExportService() *ExportService {
	return &ExportService{csv: export.NewCSVExporter(), pdf: export.NewPDFExporter()}
}

// ExportResult carries the rendered document and its HTTP metadata.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Render produces the export document for the requested format.
func (s *ExportService) Render(views []models.LessonView, format string) (*ExportResult, error) {
	dataset := lessonDataset(views)

	switch format {
	case ExportFormatCSV, "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Data: data, ContentType: "text/csv", Filename: "lessons.csv"}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Lessons")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Data: data, ContentType: "application/pdf", Filename: "lessons.pdf"}, nil
	default:
		return nil, appErrors.BadRequest(fmt.Sprintf("unsupported export format %q", format))
	}
}

func lessonDataset(views []models.LessonView) export.Dataset {
	rows := make([]map[string]string, 0, len(views))
	for _, view := range views {
		status := ""
		if view.Status != nil {
			status = strconv.FormatInt(*view.Status, 10)
		}

		teachers := make([]string, 0, len(view.Teachers))
		for _, t := range view.Teachers {
			teachers = append(teachers, t.Name)
		}
		students := make([]string, 0, len(view.Students))
		for _, st := range view.Students {
			students = append(students, st.Name)
		}

		rows = append(rows, map[string]string{
			"ID":       strconv.FormatInt(view.ID, 10),
			"Date":     view.Date.Format("2006-01-02"),
			"Title":    view.Title,
			"Status":   status,
			"Teachers": strings.Join(teachers, "; "),
			"Students": strings.Join(students, "; "),
			"Visits":   strconv.Itoa(view.VisitCount),
		})
	}
	return export.Dataset{Headers: lessonExportHeaders, Rows: rows}
}
