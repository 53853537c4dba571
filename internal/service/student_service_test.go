package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/watch"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
)

type stubStudentRepo struct {
	listFn   func(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	findFn   func(ctx context.Context, code string) (*models.Student, error)
	upsertFn func(ctx context.Context, student *models.Student) error
	deleteFn func(ctx context.Context, code string) (int64, error)
}

func (s *stubStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return s.listFn(ctx, filter)
}

func (s *stubStudentRepo) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	return s.findFn(ctx, code)
}

func (s *stubStudentRepo) Upsert(ctx context.Context, student *models.Student) error {
	return s.upsertFn(ctx, student)
}

func (s *stubStudentRepo) Delete(ctx context.Context, code string) (int64, error) {
	return s.deleteFn(ctx, code)
}

func TestSaveGeneratesCodeWhenBlank(t *testing.T) {
	var saved *models.Student
	repo := &stubStudentRepo{
		findFn:   func(ctx context.Context, code string) (*models.Student, error) { return nil, sql.ErrNoRows },
		upsertFn: func(ctx context.Context, student *models.Student) error { saved = student; return nil },
	}
	svc := NewStudentService(repo, nil, nil, nil)

	student, err := svc.Save(context.Background(), SaveStudentRequest{Name: "Ahmad Fauzi"})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, student.StudentCode, 12)
	_, parseErr := time.Parse("060102150405", student.StudentCode)
	assert.NoError(t, parseErr)
}

func TestSavePreservesCreatedAtOnReplace(t *testing.T) {
	created := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
	var saved *models.Student
	repo := &stubStudentRepo{
		findFn: func(ctx context.Context, code string) (*models.Student, error) {
			return &models.Student{StudentCode: code, Name: "Ahmad", CreatedAt: created}, nil
		},
		upsertFn: func(ctx context.Context, student *models.Student) error { saved = student; return nil },
	}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Save(context.Background(), SaveStudentRequest{StudentCode: "STU1", Name: "Ahmad F."})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, created, saved.CreatedAt)
}

func TestSaveRejectsBlankName(t *testing.T) {
	svc := NewStudentService(&stubStudentRepo{}, nil, nil, nil)

	_, err := svc.Save(context.Background(), SaveStudentRequest{StudentCode: "STU1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveRejectsAyatBeyondSurah(t *testing.T) {
	surah := 1 // Al-Fatihah has 7 verses
	ayat := 8
	svc := NewStudentService(&stubStudentRepo{}, nil, nil, nil)

	_, err := svc.Save(context.Background(), SaveStudentRequest{
		StudentCode: "STU1",
		Name:        "Ahmad",
		QuranSurah:  &surah,
		QuranAyat:   &ayat,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetNotFound(t *testing.T) {
	repo := &stubStudentRepo{
		findFn: func(ctx context.Context, code string) (*models.Student, error) { return nil, sql.ErrNoRows },
	}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeletePublishesToBothCollections(t *testing.T) {
	repo := &stubStudentRepo{
		deleteFn: func(ctx context.Context, code string) (int64, error) { return 1, nil },
	}
	bus := watch.NewBus()
	studentsCh := bus.Subscribe(watch.CollectionStudents)
	attendanceCh := bus.Subscribe(watch.CollectionAttendance)
	<-studentsCh // initial snapshots
	<-attendanceCh

	svc := NewStudentService(repo, bus, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "STU1"))

	ev := <-studentsCh
	assert.Equal(t, watch.KindDelete, ev.Kind)
	assert.Equal(t, "STU1", ev.Key)

	ev = <-attendanceCh
	assert.Equal(t, watch.KindDelete, ev.Kind)
}

func TestDeleteMissingStudent(t *testing.T) {
	repo := &stubStudentRepo{
		deleteFn: func(ctx context.Context, code string) (int64, error) { return 0, nil },
	}
	svc := NewStudentService(repo, nil, nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
