package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"student_code", "date", "is_present", "iqro_number", "iqro_page", "quran_surah", "quran_ayat", "is_passed", "teacher_note", "created_at", "updated_at"})
}

func TestAttendanceRepositoryRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_code = $1 AND date >= $2 AND date <= $3")).
		WithArgs("STU1", from, to).
		WillReturnRows(attendanceRows().
			AddRow("STU1", from.AddDate(0, 0, 9), true, 2, 7, nil, nil, true, nil, time.Now(), time.Now()))

	rows, err := repo.Range(context.Background(), "STU1", from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsPresent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRangeTruncatesBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	// Bounds carrying a time of day are truncated to the day key.
	from := time.Date(2024, 1, 1, 13, 45, 2, 0, time.UTC)
	to := time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM attendance").
		WithArgs("STU1", models.TruncateDay(from), models.TruncateDay(to)).
		WillReturnRows(attendanceRows())

	_, err := repo.Range(context.Background(), "STU1", from, to)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertWithMirrorIqro(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	num, page := 2, 7
	rec := &models.Attendance{
		StudentCode: "STU1",
		Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		IsPresent:   true,
		IqroNumber:  &num,
		IqroPage:    &page,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET position_type = $1, iqro_number = $2, iqro_page = $3")).
		WithArgs(models.PositionIqro, num, page, sqlmock.AnyArg(), "STU1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpsertWithMirror(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertWithMirrorSkipsAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rec := &models.Attendance{
		StudentCode: "STU1",
		Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		IsPresent:   false,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpsertWithMirror(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertWithMirrorRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	surah, ayat := 2, 5
	rec := &models.Attendance{
		StudentCode: "STU1",
		Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		IsPresent:   true,
		QuranSurah:  &surah,
		QuranAyat:   &ayat,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE students").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.UpsertWithMirror(context.Background(), rec)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("is_present = 1")).
		WithArgs("STU1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("is_passed = 1")).
		WithArgs("STU1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))
	mock.ExpectQuery(regexp.QuoteMeta("is_passed = 0")).
		WithArgs("STU1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	present, err := repo.CountPresent(context.Background(), "STU1", from, to)
	require.NoError(t, err)
	passed, err := repo.CountPassed(context.Background(), "STU1", from, to)
	require.NoError(t, err)
	retake, err := repo.CountRetake(context.Background(), "STU1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 12, present)
	assert.Equal(t, 8, passed)
	assert.Equal(t, 3, retake)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFillAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_code, date) DO NOTHING")).
		WithArgs(day, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	inserted, err := repo.FillAbsent(context.Background(), day)
	require.NoError(t, err)
	assert.EqualValues(t, 3, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
