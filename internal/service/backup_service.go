package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/watch"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
)

type backupStudentRepository interface {
	All(ctx context.Context) ([]models.Student, error)
	FindByCode(ctx context.Context, code string) (*models.Student, error)
	Upsert(ctx context.Context, student *models.Student) error
}

type backupAttendanceRepository interface {
	All(ctx context.Context) ([]models.Attendance, error)
	FindByKey(ctx context.Context, code string, date time.Time) (*models.Attendance, error)
	Upsert(ctx context.Context, record *models.Attendance) error
}

// BackupService implements the bulk JSON export/import contract.
type BackupService struct {
	students   backupStudentRepository
	attendance backupAttendanceRepository
	bus        *watch.Bus
	logger     *zap.Logger
}

// NewBackupService constructs the backup service.
func NewBackupService(students backupStudentRepository, attendance backupAttendanceRepository, bus *watch.Bus, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{students: students, attendance: attendance, bus: bus, logger: logger}
}

// Export snapshots both collections into one document.
func (s *BackupService) Export(ctx context.Context) (*models.Backup, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export students")
	}
	attendances, err := s.attendance.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export attendance")
	}
	return &models.Backup{
		Students:    students,
		Attendances: attendances,
		ExportedAt:  time.Now().UTC(),
	}, nil
}

// Import replays a backup document best-effort: rows are matched by identity
// key and inserted or fully replaced; malformed rows are collected as errors
// and never abort the batch. Importing the same document twice reports zero
// new rows the second time.
func (s *BackupService) Import(ctx context.Context, backup models.Backup) (*models.ImportSummary, error) {
	batch := uuid.NewString()
	summary := &models.ImportSummary{}

	for i := range backup.Students {
		student := backup.Students[i]
		if student.StudentCode == "" || student.Name == "" {
			summary.Errors = append(summary.Errors, models.ImportRowError{
				Collection: watch.CollectionStudents,
				Key:        student.StudentCode,
				Reason:     "student_code and name must not be blank",
			})
			continue
		}

		_, lookupErr := s.students.FindByCode(ctx, student.StudentCode)
		if lookupErr != nil && lookupErr != sql.ErrNoRows {
			summary.Errors = append(summary.Errors, rowError(watch.CollectionStudents, student.StudentCode, lookupErr))
			continue
		}

		if err := s.students.Upsert(ctx, &student); err != nil {
			summary.Errors = append(summary.Errors, rowError(watch.CollectionStudents, student.StudentCode, err))
			continue
		}
		if lookupErr == nil {
			summary.Students.Updated++
		} else {
			summary.Students.New++
		}
	}

	for i := range backup.Attendances {
		record := backup.Attendances[i]
		key := record.StudentCode + "@" + record.Date.Format(dateLayout)
		if record.StudentCode == "" || record.Date.IsZero() {
			summary.Errors = append(summary.Errors, models.ImportRowError{
				Collection: watch.CollectionAttendance,
				Key:        key,
				Reason:     "student_code and date are required",
			})
			continue
		}
		if _, err := s.students.FindByCode(ctx, record.StudentCode); err != nil {
			if err == sql.ErrNoRows {
				summary.Errors = append(summary.Errors, models.ImportRowError{
					Collection: watch.CollectionAttendance,
					Key:        key,
					Reason:     "attendance references unknown student",
				})
				continue
			}
			summary.Errors = append(summary.Errors, rowError(watch.CollectionAttendance, key, err))
			continue
		}

		_, lookupErr := s.attendance.FindByKey(ctx, record.StudentCode, record.Date)
		if lookupErr != nil && lookupErr != sql.ErrNoRows {
			summary.Errors = append(summary.Errors, rowError(watch.CollectionAttendance, key, lookupErr))
			continue
		}

		if err := s.attendance.Upsert(ctx, &record); err != nil {
			summary.Errors = append(summary.Errors, rowError(watch.CollectionAttendance, key, err))
			continue
		}
		if lookupErr == nil {
			summary.Attendances.Updated++
		} else {
			summary.Attendances.New++
		}
	}

	if s.bus != nil {
		s.bus.Publish(watch.Event{Collection: watch.CollectionStudents, Kind: watch.KindSnapshot})
		s.bus.Publish(watch.Event{Collection: watch.CollectionAttendance, Kind: watch.KindSnapshot})
	}

	s.logger.Info("backup imported",
		zap.String("batch", batch),
		zap.Int("students_new", summary.Students.New),
		zap.Int("students_updated", summary.Students.Updated),
		zap.Int("attendance_new", summary.Attendances.New),
		zap.Int("attendance_updated", summary.Attendances.Updated),
		zap.Int("row_errors", len(summary.Errors)),
	)
	return summary, nil
}

func rowError(collection, key string, err error) models.ImportRowError {
	return models.ImportRowError{Collection: collection, Key: key, Reason: err.Error()}
}
