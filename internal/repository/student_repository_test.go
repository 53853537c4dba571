package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"student_code", "name", "gender", "birth_date", "position_type", "iqro_number", "iqro_page", "quran_surah", "quran_ayat", "created_at", "updated_at"})
}

func TestStudentRepositoryListOrdersByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE 1=1 ORDER BY name ASC LIMIT 50 OFFSET 0")).
		WillReturnRows(studentRows().
			AddRow("STU1", "Ali", "L", nil, "iqro", 2, 5, nil, nil, time.Now(), time.Now()).
			AddRow("STU2", "Budi", nil, nil, nil, nil, nil, nil, nil, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Ali", students[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(LOWER(name) LIKE $1 OR LOWER(student_code) LIKE $1)")).
		WithArgs("%ali%").
		WillReturnRows(studentRows().AddRow("STU1", "Ali", nil, nil, nil, nil, nil, nil, nil, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%ali%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Ali"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Upsert(context.Background(), &models.Student{StudentCode: "STU1", Name: "Ali"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE student_code = $1")).
		WithArgs("STU1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), "STU1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
