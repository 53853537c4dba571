package migrate

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Steps returns the canonical ordered migration sequence.
//
// Versions 1-5 mirror how the schema actually grew: an integer-keyed legacy
// layout that accreted reading-detail columns, then a human-readable student
// code living alongside the integer id. Version 6 promotes that code to the
// sole primary key of both tables.
func Steps() []Step {
	return []Step{
		{
			Version: 1,
			Name:    "base legacy schema",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS students (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`,
				// The legacy app never enforced the student_id reference,
				// which is exactly why orphan rows can exist at version 6.
				`CREATE TABLE IF NOT EXISTS attendance (
					student_id INTEGER NOT NULL,
					date TIMESTAMP NOT NULL,
					is_present INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					PRIMARY KEY (student_id, date)
				)`,
			},
		},
		{
			Version: 2,
			Name:    "student demographic and reading columns",
			Statements: []string{
				`ALTER TABLE students ADD COLUMN gender TEXT`,
				`ALTER TABLE students ADD COLUMN birth_date TIMESTAMP`,
				`ALTER TABLE students ADD COLUMN position_type TEXT`,
				`ALTER TABLE students ADD COLUMN iqro_number INTEGER`,
				`ALTER TABLE students ADD COLUMN iqro_page INTEGER`,
				`ALTER TABLE students ADD COLUMN quran_surah INTEGER`,
				`ALTER TABLE students ADD COLUMN quran_ayat INTEGER`,
			},
		},
		{
			Version: 3,
			Name:    "attendance reading detail columns",
			Statements: []string{
				`ALTER TABLE attendance ADD COLUMN iqro_number INTEGER`,
				`ALTER TABLE attendance ADD COLUMN iqro_page INTEGER`,
				`ALTER TABLE attendance ADD COLUMN quran_surah INTEGER`,
				`ALTER TABLE attendance ADD COLUMN quran_ayat INTEGER`,
				`ALTER TABLE attendance ADD COLUMN is_passed INTEGER`,
			},
		},
		{
			Version: 4,
			Name:    "attendance teacher note column",
			Statements: []string{
				`ALTER TABLE attendance ADD COLUMN teacher_note TEXT`,
			},
		},
		{
			Version: 5,
			Name:    "nullable student code alongside integer id",
			Statements: []string{
				`ALTER TABLE students ADD COLUMN student_code TEXT`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_students_student_code ON students(student_code)`,
			},
		},
		{
			Version: 6,
			Name:    "identity promotion to student_code",
			Apply:   promoteIdentity,
		},
	}
}

// promoteIdentity rebuilds both tables keyed by student_code, copy-on-write:
// fully built staging tables are validated against row counts before the old
// tables are dropped and the staging tables renamed into place. Rows whose
// legacy student_id matches no student are dropped and counted.
func promoteIdentity(ctx context.Context, tx *sqlx.Tx, rep *Report) error {
	ddl := []string{
		`CREATE TABLE students_new (
			student_code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			gender TEXT,
			birth_date TIMESTAMP,
			position_type TEXT,
			iqro_number INTEGER,
			iqro_page INTEGER,
			quran_surah INTEGER,
			quran_ayat INTEGER,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE attendance_new (
			student_code TEXT NOT NULL REFERENCES students_new(student_code) ON DELETE CASCADE,
			date TIMESTAMP NOT NULL,
			is_present INTEGER NOT NULL DEFAULT 0,
			iqro_number INTEGER,
			iqro_page INTEGER,
			quran_surah INTEGER,
			quran_ayat INTEGER,
			is_passed INTEGER,
			teacher_note TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (student_code, date)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create staging table: %w", err)
		}
	}

	// Missing codes are backfilled from the legacy integer id. Distinct ids
	// always synthesize distinct codes; a clash with a hand-assigned code
	// trips the primary key and fails the whole step.
	if _, err := tx.ExecContext(ctx, `INSERT INTO students_new
		(student_code, name, gender, birth_date, position_type, iqro_number, iqro_page, quran_surah, quran_ayat, created_at, updated_at)
		SELECT COALESCE(student_code, 'LEGACY-' || id), name, gender, birth_date, position_type, iqro_number, iqro_page, quran_surah, quran_ayat, created_at, updated_at
		FROM students`); err != nil {
		return fmt.Errorf("copy students: %w", err)
	}

	// The inner join silently excludes orphans; they are counted below so
	// the data loss is visible in the migration report.
	if _, err := tx.ExecContext(ctx, `INSERT INTO attendance_new
		(student_code, date, is_present, iqro_number, iqro_page, quran_surah, quran_ayat, is_passed, teacher_note, created_at, updated_at)
		SELECT COALESCE(s.student_code, 'LEGACY-' || s.id), a.date, a.is_present, a.iqro_number, a.iqro_page, a.quran_surah, a.quran_ayat, a.is_passed, a.teacher_note, a.created_at, a.updated_at
		FROM attendance a
		JOIN students s ON s.id = a.student_id`); err != nil {
		return fmt.Errorf("copy attendance: %w", err)
	}

	var studentsBefore, studentsAfter, attendanceBefore, attendanceAfter int
	counts := []struct {
		dst   *int
		query string
	}{
		{&studentsBefore, `SELECT COUNT(*) FROM students`},
		{&studentsAfter, `SELECT COUNT(*) FROM students_new`},
		{&attendanceBefore, `SELECT COUNT(*) FROM attendance`},
		{&attendanceAfter, `SELECT COUNT(*) FROM attendance_new`},
	}
	for _, c := range counts {
		if err := tx.GetContext(ctx, c.dst, c.query); err != nil {
			return fmt.Errorf("validate counts: %w", err)
		}
	}

	if studentsAfter != studentsBefore {
		return fmt.Errorf("student count changed during rebuild: %d -> %d", studentsBefore, studentsAfter)
	}
	if attendanceAfter > attendanceBefore {
		return fmt.Errorf("attendance count grew during rebuild: %d -> %d", attendanceBefore, attendanceAfter)
	}
	rep.OrphansDropped += attendanceBefore - attendanceAfter

	swap := []string{
		`DROP TABLE attendance`,
		`DROP TABLE students`,
		`ALTER TABLE students_new RENAME TO students`,
		`ALTER TABLE attendance_new RENAME TO attendance`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date)`,
		`CREATE INDEX IF NOT EXISTS idx_students_name ON students(name)`,
	}
	for _, stmt := range swap {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("install rebuilt tables: %w", err)
		}
	}

	return nil
}
