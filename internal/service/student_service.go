package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/quran"
	"github.com/fikri-aulia/tpq-santri-api/internal/watch"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByCode(ctx context.Context, code string) (*models.Student, error)
	Upsert(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, code string) (int64, error)
}

// StudentService handles santri record use-cases.
type StudentService struct {
	repo      studentRepository
	bus       *watch.Bus
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, bus *watch.Bus, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerReadingValidators(validate)
	return &StudentService{repo: repo, bus: bus, validator: validate, logger: logger}
}

// registerReadingValidators installs the shared domain validators. Safe to
// call more than once per validator instance.
func registerReadingValidators(v *validator.Validate) {
	v.RegisterValidation("gender", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.Gender(fl.Field().String()).Valid()
	})
	v.RegisterValidation("position_type", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.PositionType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("surah", func(fl validator.FieldLevel) bool { //nolint:errcheck
		n := fl.Field().Int()
		return n >= 1 && n <= int64(quran.SurahCount)
	})
}

// SaveStudentRequest holds payload for creating or replacing a student.
// A blank StudentCode means "create": the code is generated from the wall
// clock as yyMMddHHmmss.
type SaveStudentRequest struct {
	StudentCode  string     `json:"student_code"`
	Name         string     `json:"name" validate:"required"`
	Gender       *string    `json:"gender" validate:"omitempty,gender"`
	BirthDate    *time.Time `json:"birth_date"`
	PositionType *string    `json:"position_type" validate:"omitempty,position_type"`
	IqroNumber   *int       `json:"iqro_number" validate:"omitempty,min=0,max=6"`
	IqroPage     *int       `json:"iqro_page" validate:"omitempty,min=1"`
	QuranSurah   *int       `json:"quran_surah" validate:"omitempty,surah"`
	QuranAyat    *int       `json:"quran_ayat" validate:"omitempty,min=1"`
}

// List returns students ordered by name with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student by code.
func (s *StudentService) Get(ctx context.Context, code string) (*models.Student, error) {
	student, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Save creates or fully replaces a student record.
func (s *StudentService) Save(ctx context.Context, req SaveStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name must not be blank")
	}
	if err := validateReadingPair(req.QuranSurah, req.QuranAyat); err != nil {
		return nil, err
	}

	code := req.StudentCode
	if code == "" {
		code = GenerateStudentCode(time.Now())
	}

	student := &models.Student{
		StudentCode: code,
		Name:        req.Name,
		BirthDate:   req.BirthDate,
		IqroNumber:  req.IqroNumber,
		IqroPage:    req.IqroPage,
		QuranSurah:  req.QuranSurah,
		QuranAyat:   req.QuranAyat,
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		student.Gender = &g
	}
	if req.PositionType != nil {
		p := models.PositionType(*req.PositionType)
		student.PositionType = &p
	}

	// Preserve the original creation timestamp on replace.
	if existing, err := s.repo.FindByCode(ctx, code); err == nil {
		student.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student")
	}

	s.publish(watch.KindUpsert, code)
	s.logger.Info("student saved", zap.String("student_code", code))
	return student, nil
}

// Delete removes a student and, through the store cascade, every attendance
// row referencing it.
func (s *StudentService) Delete(ctx context.Context, code string) error {
	affected, err := s.repo.Delete(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	s.publish(watch.KindDelete, code)
	if s.bus != nil {
		// Cascade removed the attendance rows too.
		s.bus.Publish(watch.Event{Collection: watch.CollectionAttendance, Kind: watch.KindDelete, Key: code})
	}
	s.logger.Info("student deleted", zap.String("student_code", code))
	return nil
}

func (s *StudentService) publish(kind watch.Kind, key string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(watch.Event{Collection: watch.CollectionStudents, Kind: kind, Key: key})
}

// GenerateStudentCode derives a human-readable code from the creation time.
func GenerateStudentCode(t time.Time) string {
	return t.Format("060102150405")
}

// validateReadingPair bounds the ayat by the selected surah's verse count.
func validateReadingPair(surahNumber, ayat *int) error {
	if surahNumber == nil || ayat == nil {
		return nil
	}
	max := quran.AyatCount(*surahNumber)
	if max > 0 && *ayat > max {
		return appErrors.Clone(appErrors.ErrValidation, "ayat beyond surah's verse count")
	}
	return nil
}
