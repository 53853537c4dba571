package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
	"github.com/fikri-aulia/tpq-santri-api/internal/quran"
	"github.com/fikri-aulia/tpq-santri-api/internal/watch"
	appErrors "github.com/fikri-aulia/tpq-santri-api/pkg/errors"
)

type reportAttendanceRepository interface {
	Range(ctx context.Context, code string, from, to time.Time) ([]models.Attendance, error)
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// ReportConfig tunes report computation.
type ReportConfig struct {
	WindowDays int
	CacheTTL   time.Duration
}

type cachedReport struct {
	report  *models.ProgressReport
	expires time.Time
}

// ReportService computes rolling-window progress reports. Computation is
// pure over fetched rows; a small TTL cache sits in front and is dropped on
// attendance/student writes.
type ReportService struct {
	students   studentFinder
	attendance reportAttendanceRepository
	bus        *watch.Bus
	metrics    cacheRecorder
	logger     *zap.Logger
	cfg        ReportConfig

	mu    sync.Mutex
	cache map[string]cachedReport

	stopOnce sync.Once
	stop     chan struct{}
}

// NewReportService constructs the report service and starts cache
// invalidation if a bus is provided.
func NewReportService(students studentFinder, attendance reportAttendanceRepository, bus *watch.Bus, cfg ReportConfig, metrics cacheRecorder, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	s := &ReportService{
		students:   students,
		attendance: attendance,
		bus:        bus,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		cache:      make(map[string]cachedReport),
		stop:       make(chan struct{}),
	}
	if bus != nil {
		go s.invalidateLoop()
	}
	return s
}

// Close stops the invalidation goroutine.
func (s *ReportService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *ReportService) invalidateLoop() {
	attendanceCh := s.bus.Subscribe(watch.CollectionAttendance)
	studentsCh := s.bus.Subscribe(watch.CollectionStudents)
	defer s.bus.Unsubscribe(watch.CollectionAttendance, attendanceCh)
	defer s.bus.Unsubscribe(watch.CollectionStudents, studentsCh)

	for {
		select {
		case <-s.stop:
			return
		case ev := <-attendanceCh:
			s.invalidate(ev)
		case ev := <-studentsCh:
			s.invalidate(ev)
		}
	}
}

// invalidate drops cached reports touched by a write. Snapshot events and
// keyless events clear everything.
func (s *ReportService) invalidate(ev watch.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Kind == watch.KindSnapshot || ev.Key == "" {
		s.cache = make(map[string]cachedReport)
		return
	}
	for key := range s.cache {
		if len(key) >= len(ev.Key) && key[:len(ev.Key)] == ev.Key {
			delete(s.cache, key)
		}
	}
}

// MonthlyProgress computes the rolling-window report for one student,
// anchored at today (inclusive).
func (s *ReportService) MonthlyProgress(ctx context.Context, code string, today time.Time) (*models.ProgressReport, error) {
	day := models.TruncateDay(today)
	key := code + "|" + day.Format(dateLayout)

	start := time.Now()
	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok && time.Now().Before(cached.expires) {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(true, time.Since(start))
		}
		return cached.report, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(false, time.Since(start))
	}

	student, err := s.students.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	from := day.AddDate(0, 0, -(s.cfg.WindowDays - 1))
	rows, err := s.attendance.Range(ctx, code, from, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance window")
	}

	report := BuildProgressReport(student, rows, s.cfg.WindowDays)

	s.mu.Lock()
	s.cache[key] = cachedReport{report: report, expires: time.Now().Add(s.cfg.CacheTTL)}
	s.mu.Unlock()

	return report, nil
}

// BuildProgressReport is the pure aggregation over one student's window of
// attendance rows. Rows are expected oldest-first, as the repository
// returns them.
func BuildProgressReport(student *models.Student, rows []models.Attendance, windowDays int) *models.ProgressReport {
	report := &models.ProgressReport{
		StudentCode:    student.StudentCode,
		Name:           student.Name,
		Gender:         genderLabel(student.Gender),
		BirthDate:      student.BirthDate,
		PositionLabel:  positionLabel(student.PositionType),
		WindowDays:     windowDays,
		StartReading:   models.StatusNone,
		CurrentReading: models.StatusNone,
		GeneratedAt:    time.Now().UTC(),
	}

	var present []models.Attendance
	for _, row := range rows {
		if row.IsPresent {
			report.AttendanceCount++
			present = append(present, row)
		}
		if row.IsPassed != nil {
			if *row.IsPassed {
				report.TotalPassed++
			} else {
				report.TotalRetake++
			}
		}
	}

	if len(present) > 0 {
		report.StartReading = formatSnapshot(present[0])
		report.CurrentReading = currentReading(present)
	}

	// Newest first; only days the student actually attended.
	report.DailyReports = make([]models.DailyReport, 0, len(present))
	for i := len(present) - 1; i >= 0; i-- {
		row := present[i]
		entry := models.DailyReport{
			Date:            row.Date,
			ReadingPosition: formatSnapshot(row),
			Status:          statusLabel(row.IsPassed),
		}
		if row.TeacherNote != nil {
			entry.TeacherNote = *row.TeacherNote
		}
		report.DailyReports = append(report.DailyReports, entry)
	}

	return report
}

// currentReading picks the row representing where the student reads now.
// The latest valid quran snapshot wins over any later iqro snapshot: once a
// student has reached the Quran, an iqro revision session does not move the
// headline position backwards.
func currentReading(present []models.Attendance) string {
	for i := len(present) - 1; i >= 0; i-- {
		if present[i].HasQuranSnapshot() {
			return quran.FormatQuran(*present[i].QuranSurah, *present[i].QuranAyat)
		}
	}
	for i := len(present) - 1; i >= 0; i-- {
		if present[i].HasIqroSnapshot() {
			return quran.FormatIqro(*present[i].IqroNumber, *present[i].IqroPage)
		}
	}
	return models.StatusNone
}

func formatSnapshot(row models.Attendance) string {
	switch {
	case row.HasQuranSnapshot():
		return quran.FormatQuran(*row.QuranSurah, *row.QuranAyat)
	case row.HasIqroSnapshot():
		return quran.FormatIqro(*row.IqroNumber, *row.IqroPage)
	default:
		return models.StatusNone
	}
}

func statusLabel(passed *bool) string {
	switch {
	case passed == nil:
		return models.StatusNone
	case *passed:
		return models.StatusLulus
	default:
		return models.StatusMengulang
	}
}

func positionLabel(p *models.PositionType) string {
	if p == nil {
		return "-"
	}
	switch *p {
	case models.PositionQuran:
		return "Al Quran"
	case models.PositionIqro:
		return "Iqro"
	default:
		return "-"
	}
}

func genderLabel(g *models.Gender) string {
	if g == nil {
		return "-"
	}
	switch *g {
	case models.GenderMale:
		return "Laki-laki"
	case models.GenderFemale:
		return "Perempuan"
	default:
		return "-"
	}
}
