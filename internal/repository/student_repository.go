package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `student_code, name, gender, birth_date, position_type, iqro_number, iqro_page, quran_surah, quran_ayat, created_at, updated_at`

// List returns students ordered by name ascending.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	where := "1=1"
	args := []interface{}{}
	if filter.Search != "" {
		where = "(LOWER(name) LIKE $1 OR LOWER(student_code) LIKE $1)"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`,
		studentColumns, where, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// All returns every student ordered by code, used by the bulk exporter.
func (r *StudentRepository) All(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students ORDER BY student_code ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("all students: %w", err)
	}
	return students, nil
}

// FindByCode fetches a student by its code.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE student_code = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// Upsert writes the full record, replacing any existing row with the same
// student_code.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (student_code, name, gender, birth_date, position_type, iqro_number, iqro_page, quran_surah, quran_ayat, created_at, updated_at)
		VALUES (:student_code, :name, :gender, :birth_date, :position_type, :iqro_number, :iqro_page, :quran_surah, :quran_ayat, :created_at, :updated_at)
		ON CONFLICT (student_code) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			birth_date = excluded.birth_date,
			position_type = excluded.position_type,
			iqro_number = excluded.iqro_number,
			iqro_page = excluded.iqro_page,
			quran_surah = excluded.quran_surah,
			quran_ayat = excluded.quran_ayat,
			updated_at = excluded.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// Delete removes a student; attendance rows follow through the foreign key
// cascade. Returns the number of student rows removed.
func (r *StudentRepository) Delete(ctx context.Context, code string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_code = $1`, code)
	if err != nil {
		return 0, fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete student result: %w", err)
	}
	return affected, nil
}
