package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

type reportRenderer interface {
	Render(report *models.ProgressReport) ([]byte, error)
}

type documentStore interface {
	SaveUnique(filename string, data []byte) (string, error)
	Path(filename string) string
}

type progressReporter interface {
	MonthlyProgress(ctx context.Context, code string, today time.Time) (*models.ProgressReport, error)
}

// ExportService renders a student's progress report to PDF and writes it to
// the exports directory.
type ExportService struct {
	reports  progressReporter
	renderer reportRenderer
	store    documentStore
	logger   *zap.Logger
}

// ExportResult describes a written document.
type ExportResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int    `json:"size_bytes"`
}

func NewExportService(reports progressReporter, renderer reportRenderer, store documentStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{reports: reports, renderer: renderer, store: store, logger: logger}
}

// ExportProgressPDF builds today's report for the student and persists the
// rendered document under laporan_{name}_{ddMMyy}.pdf, disambiguating with
// " (n)" suffixes when the name is already taken.
func (s *ExportService) ExportProgressPDF(ctx context.Context, code string, today time.Time) (*ExportResult, error) {
	report, err := s.reports.MonthlyProgress(ctx, code, today)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.Render(report)
	if err != nil {
		return nil, fmt.Errorf("render progress report: %w", err)
	}

	filename := ReportFilename(report.Name, today)
	saved, err := s.store.SaveUnique(filename, data)
	if err != nil {
		return nil, fmt.Errorf("store progress report: %w", err)
	}

	s.logger.Info("progress report exported",
		zap.String("student_code", code),
		zap.String("filename", saved),
		zap.Int("size_bytes", len(data)))

	return &ExportResult{Filename: saved, Path: s.store.Path(saved), Size: len(data)}, nil
}

// ReportFilename derives the export filename from a student name and date,
// e.g. "Ahmad Fauzi" on 2024-03-01 becomes laporan_ahmad_fauzi_010324.pdf.
func ReportFilename(name string, date time.Time) string {
	slug := filenameUnsafe.ReplaceAllString(strings.ToLower(name), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "santri"
	}
	return fmt.Sprintf("laporan_%s_%s.pdf", slug, date.Format("020106"))
}
