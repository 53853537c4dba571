package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/watch"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type attendanceRepository interface {
	FindByKey(ctx context.Context, code string, date time.Time) (*models.Attendance, error)
	Range(ctx context.Context, code string, from, to time.Time) ([]models.Attendance, error)
	Last(ctx context.Context, code string) (*models.Attendance, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.Attendance, error)
	UpsertWithMirror(ctx context.Context, record *models.Attendance) error
	CountPresent(ctx context.Context, code string, from, to time.Time) (int, error)
	CountPassed(ctx context.Context, code string, from, to time.Time) (int, error)
	CountRetake(ctx context.Context, code string, from, to time.Time) (int, error)
	FillAbsent(ctx context.Context, date time.Time) (int64, error)
}

type studentFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Student, error)
}

// AttendanceService coordinates daily attendance workflows.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentFinder
	bus       *watch.Bus
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students studentFinder, bus *watch.Bus, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerReadingValidators(validate)
	return &AttendanceService{repo: repo, students: students, bus: bus, validator: validate, logger: logger}
}

// MarkAttendanceRequest describes one day's submission for one student.
type MarkAttendanceRequest struct {
	StudentCode string  `json:"student_code" validate:"required"`
	Date        string  `json:"date" validate:"required"`
	IsPresent   bool    `json:"is_present"`
	IqroNumber  *int    `json:"iqro_number" validate:"omitempty,min=0,max=6"`
	IqroPage    *int    `json:"iqro_page" validate:"omitempty,min=1"`
	QuranSurah  *int    `json:"quran_surah" validate:"omitempty,surah"`
	QuranAyat   *int    `json:"quran_ayat" validate:"omitempty,min=1"`
	IsPassed    *bool   `json:"is_passed"`
	TeacherNote *string `json:"teacher_note"`
}

// AttendanceSummary aggregates the count queries over a range.
type AttendanceSummary struct {
	Present int `json:"present"`
	Passed  int `json:"passed"`
	Retake  int `json:"retake"`
}

// Mark records (or re-records, replace-on-conflict) attendance for a day.
// When the student was present with a reading snapshot, the student record's
// position fields are copied forward in the same transaction.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if err := validateReadingPair(req.QuranSurah, req.QuranAyat); err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be yyyy-mm-dd")
	}

	if _, err := s.students.FindByCode(ctx, req.StudentCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	record := &models.Attendance{
		StudentCode: req.StudentCode,
		Date:        day,
		IsPresent:   req.IsPresent,
		IqroNumber:  req.IqroNumber,
		IqroPage:    req.IqroPage,
		QuranSurah:  req.QuranSurah,
		QuranAyat:   req.QuranAyat,
		IsPassed:    req.IsPassed,
		TeacherNote: req.TeacherNote,
	}

	if err := s.repo.UpsertWithMirror(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	if s.bus != nil {
		s.bus.Publish(watch.Event{Collection: watch.CollectionAttendance, Kind: watch.KindUpsert, Key: req.StudentCode})
		if record.IsPresent && record.HasReadingSnapshot() {
			s.bus.Publish(watch.Event{Collection: watch.CollectionStudents, Kind: watch.KindUpsert, Key: req.StudentCode})
		}
	}

	s.logger.Info("attendance marked",
		zap.String("student_code", req.StudentCode),
		zap.String("date", record.Date.Format(dateLayout)),
		zap.Bool("present", req.IsPresent),
	)
	return record, nil
}

// Get returns the row for one student and day.
func (s *AttendanceService) Get(ctx context.Context, code string, date time.Time) (*models.Attendance, error) {
	row, err := s.repo.FindByKey(ctx, code, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return row, nil
}

// History returns a student's rows between from and to inclusive.
func (s *AttendanceService) History(ctx context.Context, code string, from, to time.Time) ([]models.Attendance, error) {
	rows, err := s.repo.Range(ctx, code, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return rows, nil
}

// Last returns the most recent row for a student.
func (s *AttendanceService) Last(ctx context.Context, code string) (*models.Attendance, error) {
	row, err := s.repo.Last(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no attendance recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return row, nil
}

// Summary runs the filtered count queries over the inclusive range.
func (s *AttendanceService) Summary(ctx context.Context, code string, from, to time.Time) (*AttendanceSummary, error) {
	present, err := s.repo.CountPresent(ctx, code, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	passed, err := s.repo.CountPassed(ctx, code, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	retake, err := s.repo.CountRetake(ctx, code, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	return &AttendanceSummary{Present: present, Passed: passed, Retake: retake}, nil
}

// FillAbsent marks a day as a held session: every student still without a
// row for that day gets a synthetic absent row. Explicit marks are never
// overwritten.
func (s *AttendanceService) FillAbsent(ctx context.Context, date string) (int64, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be yyyy-mm-dd")
	}
	inserted, err := s.repo.FillAbsent(ctx, day)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fill absences")
	}
	if s.bus != nil && inserted > 0 {
		// Bulk write touching many students; subscribers re-query from scratch.
		s.bus.Publish(watch.Event{Collection: watch.CollectionAttendance, Kind: watch.KindSnapshot})
	}
	s.logger.Info("session day filled", zap.String("date", date), zap.Int64("absent_rows", inserted))
	return inserted, nil
}

// ListByDate returns every row recorded for a day.
func (s *AttendanceService) ListByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	rows, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, nil
}
