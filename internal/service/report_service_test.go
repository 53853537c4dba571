package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/watch"
)

type recordingAttendanceRange struct {
	calls    int
	from, to time.Time
	rows     []models.Attendance
}

func (r *recordingAttendanceRange) Range(ctx context.Context, code string, from, to time.Time) ([]models.Attendance, error) {
	r.calls++
	r.from, r.to = from, to
	return r.rows, nil
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func presentRow(date time.Time) models.Attendance {
	return models.Attendance{StudentCode: "STU1", Date: date, IsPresent: true}
}

func TestMonthlyProgressWindowBounds(t *testing.T) {
	repo := &recordingAttendanceRange{}
	svc := NewReportService(knownStudent(), repo, nil, ReportConfig{WindowDays: 30}, nil, nil)
	defer svc.Close()

	today := time.Date(2024, 3, 30, 14, 45, 0, 0, time.UTC)
	_, err := svc.MonthlyProgress(context.Background(), "STU1", today)
	require.NoError(t, err)

	// 30 calendar days inclusive of today: March 1 through March 30.
	assert.Equal(t, day(1), repo.from)
	assert.Equal(t, day(30), repo.to)
}

func TestBuildProgressReportCountsAndWindow(t *testing.T) {
	retake := presentRow(day(2))
	retake.IsPassed = boolPtr(false)

	passed := presentRow(day(3))
	passed.IsPassed = boolPtr(true)

	// Absent days with an evaluation still count toward pass/retake totals
	// but never toward attendance or the daily breakdown.
	absentEvaluated := models.Attendance{StudentCode: "STU1", Date: day(4), IsPassed: boolPtr(true)}

	student := &models.Student{StudentCode: "STU1", Name: "Ali"}
	report := BuildProgressReport(student, []models.Attendance{retake, passed, absentEvaluated}, 30)

	assert.Equal(t, 2, report.AttendanceCount)
	assert.Equal(t, 2, report.TotalPassed)
	assert.Equal(t, 1, report.TotalRetake)
	assert.Equal(t, 30, report.WindowDays)
	require.Len(t, report.DailyReports, 2)
	// Newest first.
	assert.Equal(t, day(3), report.DailyReports[0].Date)
	assert.Equal(t, models.StatusLulus, report.DailyReports[0].Status)
	assert.Equal(t, day(2), report.DailyReports[1].Date)
	assert.Equal(t, models.StatusMengulang, report.DailyReports[1].Status)
}

func TestBuildProgressReportQuranOutranksLaterIqro(t *testing.T) {
	first := presentRow(day(1))
	first.IqroNumber = intPtr(2)
	first.IqroPage = intPtr(7)

	quranDay := presentRow(day(2))
	quranDay.QuranSurah = intPtr(2)
	quranDay.QuranAyat = intPtr(5)

	// A later iqro revision session must not move the headline backwards.
	revision := presentRow(day(3))
	revision.IqroNumber = intPtr(3)
	revision.IqroPage = intPtr(10)

	student := &models.Student{StudentCode: "STU1", Name: "Ali"}
	report := BuildProgressReport(student, []models.Attendance{first, quranDay, revision}, 30)

	assert.Equal(t, "Iqro 2 Hal 7", report.StartReading)
	assert.Equal(t, "Surah Al-Baqarah ayat 5", report.CurrentReading)
}

func TestBuildProgressReportEmptyWindow(t *testing.T) {
	student := &models.Student{StudentCode: "STU1", Name: "Ali"}
	report := BuildProgressReport(student, nil, 30)

	assert.Equal(t, 0, report.AttendanceCount)
	assert.Equal(t, models.StatusNone, report.StartReading)
	assert.Equal(t, models.StatusNone, report.CurrentReading)
	assert.Empty(t, report.DailyReports)
}

func TestMonthlyProgressCaches(t *testing.T) {
	repo := &recordingAttendanceRange{}
	svc := NewReportService(knownStudent(), repo, nil, ReportConfig{WindowDays: 30, CacheTTL: time.Minute}, nil, nil)
	defer svc.Close()

	today := day(30)
	_, err := svc.MonthlyProgress(context.Background(), "STU1", today)
	require.NoError(t, err)
	_, err = svc.MonthlyProgress(context.Background(), "STU1", today)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	// A write for the student drops the cached report.
	svc.invalidate(watch.Event{Collection: watch.CollectionAttendance, Kind: watch.KindUpsert, Key: "STU1"})
	_, err = svc.MonthlyProgress(context.Background(), "STU1", today)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestInvalidateSnapshotClearsEverything(t *testing.T) {
	repo := &recordingAttendanceRange{}
	svc := NewReportService(knownStudent(), repo, nil, ReportConfig{WindowDays: 30, CacheTTL: time.Minute}, nil, nil)
	defer svc.Close()

	_, err := svc.MonthlyProgress(context.Background(), "STU1", day(30))
	require.NoError(t, err)

	svc.invalidate(watch.Event{Collection: watch.CollectionAttendance, Kind: watch.KindSnapshot})

	_, err = svc.MonthlyProgress(context.Background(), "STU1", day(30))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
