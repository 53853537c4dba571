package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

// AttendanceRepository handles persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `student_code, date, is_present, iqro_number, iqro_page, quran_surah, quran_ayat, is_passed, teacher_note, created_at, updated_at`

// All returns every attendance row ordered by the composite key, used by the
// bulk exporter.
func (r *AttendanceRepository) All(ctx context.Context) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance ORDER BY student_code ASC, date ASC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("all attendance: %w", err)
	}
	return rows, nil
}

// FindByKey fetches the row for one student on one day.
func (r *AttendanceRepository) FindByKey(ctx context.Context, code string, date time.Time) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE student_code = $1 AND date = $2`, attendanceColumns)
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, code, models.TruncateDay(date)); err != nil {
		return nil, err
	}
	return &row, nil
}

// Range returns rows for a student between from and to inclusive, oldest
// first.
func (r *AttendanceRepository) Range(ctx context.Context, code string, from, to time.Time) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance
		WHERE student_code = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, code, models.TruncateDay(from), models.TruncateDay(to)); err != nil {
		return nil, fmt.Errorf("attendance range: %w", err)
	}
	return rows, nil
}

// Last returns the most recent row for a student.
func (r *AttendanceRepository) Last(ctx context.Context, code string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE student_code = $1 ORDER BY date DESC LIMIT 1`, attendanceColumns)
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByDate returns every row recorded for a day.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE date = $1 ORDER BY student_code ASC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, models.TruncateDay(date)); err != nil {
		return nil, fmt.Errorf("attendance by date: %w", err)
	}
	return rows, nil
}

const upsertAttendanceQuery = `INSERT INTO attendance (student_code, date, is_present, iqro_number, iqro_page, quran_surah, quran_ayat, is_passed, teacher_note, created_at, updated_at)
	VALUES (:student_code, :date, :is_present, :iqro_number, :iqro_page, :quran_surah, :quran_ayat, :is_passed, :teacher_note, :created_at, :updated_at)
	ON CONFLICT (student_code, date) DO UPDATE SET
		is_present = excluded.is_present,
		iqro_number = excluded.iqro_number,
		iqro_page = excluded.iqro_page,
		quran_surah = excluded.quran_surah,
		quran_ayat = excluded.quran_ayat,
		is_passed = excluded.is_passed,
		teacher_note = excluded.teacher_note,
		updated_at = excluded.updated_at`

// Upsert writes one row, replacing any previous row for the same
// (student_code, date).
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) error {
	prepare(record)
	if _, err := r.db.NamedExecContext(ctx, upsertAttendanceQuery, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// UpsertWithMirror writes the attendance row and, in the same transaction,
// copies the row's reading snapshot forward onto the student record. Either
// both writes become durable or neither does.
func (r *AttendanceRepository) UpsertWithMirror(ctx context.Context, record *models.Attendance) error {
	prepare(record)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance upsert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()

	if _, err := tx.NamedExecContext(ctx, upsertAttendanceQuery, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}

	if record.IsPresent && record.HasReadingSnapshot() {
		if err := mirrorStudentPosition(ctx, tx, record); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance upsert: %w", err)
	}
	committed = true
	return nil
}

// mirrorStudentPosition keeps the student record a current-state cache of the
// latest submitted reading while attendance remains the historical log. The
// submitted pair also decides the authoritative position type.
func mirrorStudentPosition(ctx context.Context, tx *sqlx.Tx, record *models.Attendance) error {
	var (
		position models.PositionType
		query    string
	)
	switch {
	case record.HasQuranSnapshot():
		position = models.PositionQuran
		query = `UPDATE students SET position_type = $1, quran_surah = $2, quran_ayat = $3, updated_at = $4 WHERE student_code = $5`
		if _, err := tx.ExecContext(ctx, query, position, *record.QuranSurah, *record.QuranAyat, record.UpdatedAt, record.StudentCode); err != nil {
			return fmt.Errorf("mirror quran position: %w", err)
		}
	case record.HasIqroSnapshot():
		position = models.PositionIqro
		query = `UPDATE students SET position_type = $1, iqro_number = $2, iqro_page = $3, updated_at = $4 WHERE student_code = $5`
		if _, err := tx.ExecContext(ctx, query, position, *record.IqroNumber, *record.IqroPage, record.UpdatedAt, record.StudentCode); err != nil {
			return fmt.Errorf("mirror iqro position: %w", err)
		}
	}
	return nil
}

// CountPresent counts present days in the inclusive range.
func (r *AttendanceRepository) CountPresent(ctx context.Context, code string, from, to time.Time) (int, error) {
	return r.countWhere(ctx, code, from, to, "is_present = 1")
}

// CountPassed counts lulus judgments in the inclusive range.
func (r *AttendanceRepository) CountPassed(ctx context.Context, code string, from, to time.Time) (int, error) {
	return r.countWhere(ctx, code, from, to, "is_passed = 1")
}

// CountRetake counts mengulang judgments in the inclusive range.
func (r *AttendanceRepository) CountRetake(ctx context.Context, code string, from, to time.Time) (int, error) {
	return r.countWhere(ctx, code, from, to, "is_passed = 0")
}

func (r *AttendanceRepository) countWhere(ctx context.Context, code string, from, to time.Time, cond string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM attendance
		WHERE student_code = $1 AND date >= $2 AND date <= $3 AND %s`, cond)
	var total int
	if err := r.db.GetContext(ctx, &total, query, code, models.TruncateDay(from), models.TruncateDay(to)); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return total, nil
}

// FillAbsent inserts an absent row for every student without a row on the
// given day. Existing rows are left untouched, so explicit marks are never
// overwritten. Returns the number of rows created.
func (r *AttendanceRepository) FillAbsent(ctx context.Context, date time.Time) (int64, error) {
	day := models.TruncateDay(date)
	now := time.Now().UTC()
	query := `INSERT INTO attendance (student_code, date, is_present, created_at, updated_at)
		SELECT s.student_code, $1, 0, $2, $2
		FROM students s
		WHERE true
		ON CONFLICT (student_code, date) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, day, now)
	if err != nil {
		return 0, fmt.Errorf("fill absent: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fill absent result: %w", err)
	}
	return inserted, nil
}

func prepare(record *models.Attendance) {
	record.Date = models.TruncateDay(record.Date)
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}
