package models

import "time"

// Attendance is one row per student per calendar day. Date carries UTC
// midnight; time-of-day is truncated before the row is stored.
//
// IsPassed is three-valued: true = lulus (advance), false = mengulang
// (repeat), nil = not evaluated that day.
type Attendance struct {
	StudentCode string     `db:"student_code" json:"student_code"`
	Date        time.Time  `db:"date" json:"date"`
	IsPresent   bool       `db:"is_present" json:"is_present"`
	IqroNumber  *int       `db:"iqro_number" json:"iqro_number,omitempty"`
	IqroPage    *int       `db:"iqro_page" json:"iqro_page,omitempty"`
	QuranSurah  *int       `db:"quran_surah" json:"quran_surah,omitempty"`
	QuranAyat   *int       `db:"quran_ayat" json:"quran_ayat,omitempty"`
	IsPassed    *bool      `db:"is_passed" json:"is_passed,omitempty"`
	TeacherNote *string    `db:"teacher_note" json:"teacher_note,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// HasQuranSnapshot reports whether the row carries a valid quran reading.
func (a Attendance) HasQuranSnapshot() bool {
	return a.QuranSurah != nil && *a.QuranSurah >= 1 && a.QuranAyat != nil && *a.QuranAyat >= 1
}

// HasIqroSnapshot reports whether the row carries a valid iqro reading.
// Iqro number 0 is the pre-level track and counts as valid.
func (a Attendance) HasIqroSnapshot() bool {
	return a.IqroNumber != nil && *a.IqroNumber >= 0 && a.IqroPage != nil && *a.IqroPage >= 1
}

// HasReadingSnapshot reports whether either reading pair is valid.
func (a Attendance) HasReadingSnapshot() bool {
	return a.HasQuranSnapshot() || a.HasIqroSnapshot()
}

// TruncateDay normalises a timestamp to UTC midnight, the granularity of the
// attendance composite key.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
