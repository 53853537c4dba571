package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

type stubReporter struct{}

func (stubReporter) MonthlyProgress(ctx context.Context, code string, today time.Time) (*models.ProgressReport, error) {
	return &models.ProgressReport{StudentCode: code, Name: "Ahmad Fauzi"}, nil
}

type stubRenderer struct{}

func (stubRenderer) Render(report *models.ProgressReport) ([]byte, error) {
	return []byte("%PDF-stub"), nil
}

type stubDocumentStore struct {
	saved map[string][]byte
}

func (s *stubDocumentStore) SaveUnique(filename string, data []byte) (string, error) {
	s.saved[filename] = data
	return filename, nil
}

func (s *stubDocumentStore) Path(filename string) string { return "/exports/" + filename }

func TestReportFilename(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "laporan_ahmad_fauzi_010324.pdf", ReportFilename("Ahmad Fauzi", date))
	assert.Equal(t, "laporan_siti_a_010324.pdf", ReportFilename("  Siti (A)!  ", date))
	assert.Equal(t, "laporan_santri_010324.pdf", ReportFilename("", date))
}

func TestExportProgressPDF(t *testing.T) {
	store := &stubDocumentStore{saved: make(map[string][]byte)}
	svc := NewExportService(stubReporter{}, stubRenderer{}, store, nil)

	result, err := svc.ExportProgressPDF(context.Background(), "STU1", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "laporan_ahmad_fauzi_010324.pdf", result.Filename)
	assert.Equal(t, "/exports/laporan_ahmad_fauzi_010324.pdf", result.Path)
	assert.Equal(t, len("%PDF-stub"), result.Size)
	assert.Contains(t, store.saved, "laporan_ahmad_fauzi_010324.pdf")
}
