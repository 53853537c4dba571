package models

import "time"

// Gender enumerates student gender values.
type Gender string

const (
	GenderMale   Gender = "L"
	GenderFemale Gender = "P"
)

// Valid returns true when the gender is a supported value.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// PositionType selects which reading track a student is on.
type PositionType string

const (
	PositionIqro  PositionType = "iqro"
	PositionQuran PositionType = "quran"
)

// Valid returns true when the position type is a supported value.
func (p PositionType) Valid() bool {
	return p == PositionIqro || p == PositionQuran
}

// Student represents a santri registered at the TPQ.
//
// StudentCode is the durable identity. PositionType is authoritative over
// which reading pair (iqro or quran) is active; legacy rows may carry stale
// values in the inactive pair and readers must not infer the track from
// field presence.
type Student struct {
	StudentCode  string        `db:"student_code" json:"student_code"`
	Name         string        `db:"name" json:"name"`
	Gender       *Gender       `db:"gender" json:"gender,omitempty"`
	BirthDate    *time.Time    `db:"birth_date" json:"birth_date,omitempty"`
	PositionType *PositionType `db:"position_type" json:"position_type,omitempty"`
	IqroNumber   *int          `db:"iqro_number" json:"iqro_number,omitempty"`
	IqroPage     *int          `db:"iqro_page" json:"iqro_page,omitempty"`
	QuranSurah   *int          `db:"quran_surah" json:"quran_surah,omitempty"`
	QuranAyat    *int          `db:"quran_ayat" json:"quran_ayat,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}
