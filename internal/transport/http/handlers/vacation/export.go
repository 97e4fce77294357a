package vacationhandler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"

	"planivo/internal/domain/vacation"
)

const dateLayout = "2006-01-02"

func writeScheduleCSV(w http.ResponseWriter, rows []vacation.ScheduleRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-schedule.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Staff", "Department", "Leave Type", "Start", "End", "Days"})
	for _, row := range rows {
		_ = cw.Write([]string{
			row.StaffName,
			row.DepartmentName,
			row.LeaveTypeName,
			row.StartDate.Format(dateLayout),
			row.EndDate.Format(dateLayout),
			fmt.Sprintf("%.1f", row.Days),
		})
	}
	cw.Flush()
}

func writeSchedulePDF(w http.ResponseWriter, rows []vacation.ScheduleRow, from, to time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Leave Schedule", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Approved Leave Schedule")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("%s to %s", from.Format(dateLayout), to.Format(dateLayout)))
	pdf.Ln(12)

	widths := []float64{60, 55, 50, 30, 30, 20}
	headers := []string{"Staff", "Department", "Leave Type", "Start", "End", "Days"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, title := range headers {
		pdf.CellFormat(widths[i], 8, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		cells := []string{
			row.StaffName,
			row.DepartmentName,
			row.LeaveTypeName,
			row.StartDate.Format(dateLayout),
			row.EndDate.Format(dateLayout),
			fmt.Sprintf("%.1f", row.Days),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(rows) == 0 {
		pdf.Cell(0, 8, "No approved leave in this window.")
		pdf.Ln(-1)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-schedule.pdf"`)
	return pdf.Output(w)
}
