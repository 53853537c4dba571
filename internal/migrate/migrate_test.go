package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fikri-aulia/tpq-santri-api/pkg/database"
)

func TestRunFromScratch(t *testing.T) {
	db, err := database.NewMemory()
	require.NoError(t, err)
	defer db.Close()

	m := New(db, zap.NewNop())
	rep, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, rep.FromVersion)
	assert.Equal(t, LatestVersion(), rep.ToVersion)
	assert.Len(t, rep.StepsApplied, len(Steps()))
	assert.Equal(t, 0, rep.OrphansDropped)

	// Re-running is a no-op.
	rep, err = m.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.StepsApplied)
	assert.Equal(t, LatestVersion(), rep.FromVersion)
}

func TestIdentityPromotionPreservesRows(t *testing.T) {
	db, err := database.NewMemory()
	require.NoError(t, err)
	defer db.Close()

	m := New(db, zap.NewNop())
	_, err = m.RunTo(context.Background(), 5)
	require.NoError(t, err)

	now := time.Now().UTC()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	// One student with an assigned code, one without, and an attendance row
	// whose student_id resolves to nothing.
	_, err = db.Exec(`INSERT INTO students (id, name, student_code, created_at, updated_at) VALUES
		(1, 'Ali', 'STU1', ?, ?),
		(2, 'Budi', NULL, ?, ?)`, now, now, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO attendance (student_id, date, is_present, created_at, updated_at) VALUES
		(1, ?, 1, ?, ?),
		(2, ?, 1, ?, ?),
		(99, ?, 1, ?, ?)`, day, now, now, day, now, now, day, now, now)
	require.NoError(t, err)

	rep, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.OrphansDropped)

	var students, attendance int
	require.NoError(t, db.Get(&students, `SELECT COUNT(*) FROM students`))
	require.NoError(t, db.Get(&attendance, `SELECT COUNT(*) FROM attendance`))
	assert.Equal(t, 2, students)
	assert.Equal(t, 2, attendance)

	// Every surviving attendance row resolves to a student.
	var unresolved int
	require.NoError(t, db.Get(&unresolved, `SELECT COUNT(*) FROM attendance a
		LEFT JOIN students s ON s.student_code = a.student_code
		WHERE s.student_code IS NULL`))
	assert.Equal(t, 0, unresolved)

	// The missing code was backfilled deterministically from the legacy id.
	var code string
	require.NoError(t, db.Get(&code, `SELECT student_code FROM students WHERE name = 'Budi'`))
	assert.Equal(t, "LEGACY-2", code)
}

func TestRebuiltSchemaCascadesDeletes(t *testing.T) {
	db, err := database.NewMemory()
	require.NoError(t, err)
	defer db.Close()

	m := New(db, zap.NewNop())
	_, err = m.Run(context.Background())
	require.NoError(t, err)

	now := time.Now().UTC()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err = db.Exec(`INSERT INTO students (student_code, name, created_at, updated_at) VALUES ('STU1', 'Ali', ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO attendance (student_code, date, is_present, created_at, updated_at) VALUES ('STU1', ?, 1, ?, ?)`, day, now, now)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM students WHERE student_code = 'STU1'`)
	require.NoError(t, err)

	var remaining int
	require.NoError(t, db.Get(&remaining, `SELECT COUNT(*) FROM attendance`))
	assert.Equal(t, 0, remaining)
}
