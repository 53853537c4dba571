// Package export renders progress reports into fixed-size PDF pages.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/fikri-aulia/tpq-santri-api/internal/models"
)

// Page geometry in points (A4). Cards have a fixed height, so the capacity
// of a page is computable up front and pagination is fully deterministic.
const (
	pageWidth  = 595.28
	pageHeight = 841.89

	marginX      = 42.0
	TopMargin    = 46.0
	BottomMargin = 52.0

	CardHeight = 58.0
	CardGap    = 8.0

	sectionGap    = 10.0
	headingHeight = 22.0
)

// ReportPDF lays a progress report onto A4 pages: header, boxed identity
// block, sectioned statistics and one fixed-height card per daily entry,
// breaking to a new page whenever the next card would cross the bottom
// margin. Single greedy pass; a card never splits across pages.
type ReportPDF struct{}

// NewReportPDF constructs the renderer.
func NewReportPDF() *ReportPDF {
	return &ReportPDF{}
}

// ContinuationPageCapacity returns how many daily cards fit on a page that
// starts with the "lanjutan" sub-heading.
func ContinuationPageCapacity() int {
	usable := pageHeight - BottomMargin - TopMargin - headingHeight
	return int(usable / (CardHeight + CardGap))
}

// Render produces the finished multi-page document.
func (r *ReportPDF) Render(report *models.ProgressReport) ([]byte, error) {
	pdf := r.renderDoc(report)
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *ReportPDF) renderDoc(report *models.ProgressReport) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	y := TopMargin

	// Title.
	pdf.SetFont("Arial", "B", 16)
	pdf.SetXY(marginX, y)
	pdf.CellFormat(contentWidth(), 20, "Laporan Perkembangan Santri", "", 0, "C", false, 0, "")
	y += 20 + sectionGap

	// Boxed identity block.
	identity := [][2]string{
		{"Nama", report.Name},
		{"Tingkat", report.PositionLabel},
		{"Tanggal Lahir", formatBirthDate(report)},
		{"Jenis Kelamin", report.Gender},
	}
	boxHeight := float64(len(identity))*16 + 12
	pdf.Rect(marginX, y, contentWidth(), boxHeight, "D")
	pdf.SetFont("Arial", "", 10)
	line := y + 12
	for _, row := range identity {
		pdf.SetXY(marginX+10, line)
		pdf.CellFormat(110, 12, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(contentWidth()-130, 12, ": "+row[1], "", 0, "L", false, 0, "")
		line += 16
	}
	y += boxHeight + sectionGap
	y = rule(pdf, y)

	y = section(pdf, y, "Kehadiran",
		fmt.Sprintf("Hadir %d hari dalam %d hari terakhir", report.AttendanceCount, report.WindowDays))
	y = rule(pdf, y)

	y = section(pdf, y, "Perkembangan Bacaan",
		fmt.Sprintf("Awal: %s", report.StartReading),
		fmt.Sprintf("Saat ini: %s", report.CurrentReading))
	y = rule(pdf, y)

	y = section(pdf, y, "Pencapaian",
		fmt.Sprintf("Lulus: %d", report.TotalPassed),
		fmt.Sprintf("Mengulang: %d", report.TotalRetake))
	y = rule(pdf, y)

	y = heading(pdf, y, "Laporan Harian")

	for _, entry := range report.DailyReports {
		if y+CardHeight > pageHeight-BottomMargin {
			pdf.AddPage()
			y = TopMargin
			y = heading(pdf, y, "Laporan Harian (lanjutan)")
		}
		drawCard(pdf, y, entry)
		y += CardHeight + CardGap
	}

	// Footer on the last page.
	footerY := pageHeight - BottomMargin + 10
	pdf.Line(marginX, footerY, pageWidth-marginX, footerY)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetXY(marginX, footerY+6)
	pdf.CellFormat(contentWidth(), 10,
		fmt.Sprintf("Dibuat pada %s", report.GeneratedAt.Format("02-01-2006 15:04")),
		"", 0, "C", false, 0, "")

	return pdf
}

func drawCard(pdf *gofpdf.Fpdf, y float64, entry models.DailyReport) {
	pdf.Rect(marginX, y, contentWidth(), CardHeight, "D")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetXY(marginX+10, y+8)
	pdf.CellFormat(140, 12, entry.Date.Format("02-01-2006"), "", 0, "L", false, 0, "")

	pdf.SetXY(marginX+10, y+24)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(contentWidth()-160, 12, entry.ReadingPosition, "", 0, "L", false, 0, "")

	pdf.SetXY(pageWidth-marginX-120, y+8)
	pdf.CellFormat(110, 12, entry.Status, "", 0, "R", false, 0, "")

	note := entry.TeacherNote
	if note == "" {
		note = "-"
	}
	pdf.SetFont("Arial", "I", 9)
	pdf.SetXY(marginX+10, y+40)
	pdf.CellFormat(contentWidth()-20, 10, truncate(note, 110), "", 0, "L", false, 0, "")
}

func section(pdf *gofpdf.Fpdf, y float64, title string, lines ...string) float64 {
	pdf.SetFont("Arial", "B", 11)
	pdf.SetXY(marginX, y)
	pdf.CellFormat(contentWidth(), 14, title, "", 0, "L", false, 0, "")
	y += 16
	pdf.SetFont("Arial", "", 10)
	for _, l := range lines {
		pdf.SetXY(marginX+10, y)
		pdf.CellFormat(contentWidth()-10, 12, l, "", 0, "L", false, 0, "")
		y += 14
	}
	return y + sectionGap
}

func heading(pdf *gofpdf.Fpdf, y float64, title string) float64 {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetXY(marginX, y)
	pdf.CellFormat(contentWidth(), 16, title, "", 0, "L", false, 0, "")
	return y + headingHeight
}

func rule(pdf *gofpdf.Fpdf, y float64) float64 {
	pdf.Line(marginX, y, pageWidth-marginX, y)
	return y + sectionGap
}

func contentWidth() float64 {
	return pageWidth - 2*marginX
}

func formatBirthDate(report *models.ProgressReport) string {
	if report.BirthDate == nil {
		return "-"
	}
	return report.BirthDate.Format("02-01-2006")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
