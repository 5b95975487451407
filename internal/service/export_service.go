package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
	"github.com/noah-isme/uwm-api/pkg/export"
)

// ExportFormat identifies a supported report rendering.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportArtifact is a rendered report ready for inline download.
type ExportArtifact struct {
	FileName    string
	ContentType string
	Payload     []byte
}

// ExportService renders the high-risk student report as CSV or PDF.
type ExportService struct {
	risk    *RiskService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	enabled bool
	logger  *zap.Logger
}

// NewExportService constructs an export service.
func NewExportService(risk *RiskService, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		risk:    risk,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether export endpoints should be served.
func (s *ExportService) Enabled() bool {
	return s != nil && s.enabled
}

// RiskReport evaluates the high-risk list and renders it in the requested
// format.
func (s *ExportService) RiskReport(ctx context.Context, format ExportFormat, thresholds models.RiskThresholds) (*ExportArtifact, error) {
	students, _, err := s.risk.HighRiskStudents(ctx, thresholds)
	if err != nil {
		return nil, err
	}

	data := riskDataset(students)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case FormatCSV:
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportArtifact{
			FileName:    fmt.Sprintf("high-risk-students-%s.csv", stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case FormatPDF:
		payload, err := s.pdf.Render(data, "High-Risk Students")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportArtifact{
			FileName:    fmt.Sprintf("high-risk-students-%s.pdf", stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func riskDataset(students []models.RiskStudent) export.Dataset {
	headers := []string{"Student ID", "Full Name", "Attendance", "Average Grade", "Average Stress", "Reasons"}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Student ID":     strconv.FormatInt(st.StudentID, 10),
			"Full Name":      st.FullName,
			"Attendance":     formatOptionalMetric(st.AverageAttendance, "%.1f%%"),
			"Average Grade":  formatOptionalMetric(st.AverageGrade, "%.1f"),
			"Average Stress": formatOptionalMetric(st.AverageStress, "%.1f"),
			"Reasons":        strings.Join(st.Reasons, "; "),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatOptionalMetric(value *float64, layout string) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf(layout, *value)
}
