package quran

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSurahName(t *testing.T) {
	assert.Equal(t, "Al-Fatihah", SurahName(1))
	assert.Equal(t, "Al-Baqarah", SurahName(2))
	assert.Equal(t, "An-Nas", SurahName(114))

	assert.Equal(t, "-", SurahName(0))
	assert.Equal(t, "-", SurahName(115))
	assert.Equal(t, "-", SurahName(-3))
}

func TestAyatCount(t *testing.T) {
	assert.Equal(t, 7, AyatCount(1))
	assert.Equal(t, 286, AyatCount(2))
	assert.Equal(t, 6, AyatCount(114))
	assert.Equal(t, 0, AyatCount(0))
	assert.Equal(t, 0, AyatCount(200))
}

func TestFormatQuran(t *testing.T) {
	assert.Equal(t, "Surah Al-Baqarah ayat 5", FormatQuran(2, 5))
	assert.Equal(t, "Surah Yasin ayat 83", FormatQuran(36, 83))

	// 0 or missing values are "not set", not a position.
	assert.Equal(t, "-", FormatQuran(2, 0))
	assert.Equal(t, "-", FormatQuran(0, 5))
	assert.Equal(t, "-", FormatQuran(115, 1))
}

func TestFormatIqro(t *testing.T) {
	assert.Equal(t, "Iqro 3 Hal 10", FormatIqro(3, 10))
	assert.Equal(t, "Pra-TK Hal 4", FormatIqro(0, 4))
	assert.Equal(t, "-", FormatIqro(-1, 4))
	assert.Equal(t, "-", FormatIqro(2, 0))
}
