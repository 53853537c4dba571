package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

func sampleReport(days int) *models.ProgressReport {
	report := &models.ProgressReport{
		StudentCode:     "240101120000",
		Name:            "Ahmad Fauzi",
		Gender:          "Laki-laki",
		PositionLabel:   "Al Quran",
		WindowDays:      30,
		AttendanceCount: days,
		StartReading:    "Iqro 2 Hal 7",
		CurrentReading:  "Surah Al-Baqarah ayat 5",
		TotalPassed:     days,
		GeneratedAt:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	for i := 0; i < days; i++ {
		report.DailyReports = append(report.DailyReports, models.DailyReport{
			Date:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i),
			ReadingPosition: "Surah Al-Baqarah ayat 5",
			Status:          models.StatusLulus,
			TeacherNote:     "Bacaan lancar",
		})
	}
	return report
}

func TestRenderProducesDocument(t *testing.T) {
	out, err := NewReportPDF().Render(sampleReport(5))
	require.NoError(t, err)
	assert.Greater(t, len(out), 1000)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestContinuationPageCapacity(t *testing.T) {
	capacity := ContinuationPageCapacity()
	require.Greater(t, capacity, 0)

	usable := float64(pageHeight - BottomMargin - TopMargin - headingHeight)
	expected := int(usable / (CardHeight + CardGap))
	assert.Equal(t, expected, capacity)
}

// Pagination is a greedy single pass with fixed-height cards, so page counts
// follow a strict arithmetic: once the first page overflows, every further
// ContinuationPageCapacity cards add exactly one page.
func TestRenderPagination(t *testing.T) {
	renderer := NewReportPDF()
	pages := func(days int) int {
		return renderer.renderDoc(sampleReport(days)).PageCount()
	}

	require.Equal(t, 1, pages(0))

	// Find the smallest breakdown that spills onto a second page.
	overflow := -1
	for n := 1; n <= 40; n++ {
		if pages(n) == 2 {
			overflow = n
			break
		}
	}
	require.NotEqual(t, -1, overflow, "expected overflow within 40 daily entries")

	capacity := ContinuationPageCapacity()
	assert.Equal(t, 1, pages(overflow-1))
	assert.Equal(t, 2, pages(overflow+capacity-1))
	assert.Equal(t, 3, pages(overflow+capacity))
}
