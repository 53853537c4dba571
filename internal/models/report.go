package models

import "time"

// Daily report statuses as rendered for teachers.
const (
	StatusLulus     = "Lulus"
	StatusMengulang = "Mengulang"
	StatusNone      = "-"
)

// DailyReport is one rendered line of the per-day breakdown.
type DailyReport struct {
	Date            time.Time `json:"date"`
	ReadingPosition string    `json:"reading_position"`
	Status          string    `json:"status"`
	TeacherNote     string    `json:"teacher_note,omitempty"`
}

// ProgressReport is the rolling-window summary for one student.
type ProgressReport struct {
	StudentCode     string        `json:"student_code"`
	Name            string        `json:"name"`
	Gender          string        `json:"gender"`
	BirthDate       *time.Time    `json:"birth_date,omitempty"`
	PositionLabel   string        `json:"position_label"`
	WindowDays      int           `json:"window_days"`
	AttendanceCount int           `json:"attendance_count"`
	StartReading    string        `json:"start_reading"`
	CurrentReading  string        `json:"current_reading"`
	TotalPassed     int           `json:"total_passed"`
	TotalRetake     int           `json:"total_retake"`
	DailyReports    []DailyReport `json:"daily_reports"`
	GeneratedAt     time.Time     `json:"generated_at"`
}
