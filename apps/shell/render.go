package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/roster"
)

const (
	emptyReportMessage = "No attendance data found for the selected month/year. The Admin needs to mark attendance first."
	chartTitle         = "Student Monthly Attendance"
	chartWidth         = 50 // characters for 100%
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderStudents(w io.Writer, students []roster.Student) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, s := range students {
		fmt.Fprintf(tw, "%d\t%s\n", s.ID, s.Name)
	}
	_ = tw.Flush()
}

func renderSheet(w io.Writer, sheet attendance.DaySheet) {
	if day, err := time.Parse(core.DateLayout, sheet.Date); err == nil {
		fmt.Fprintln(w, day.Format("Monday, January 2, 2006"))
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
	for _, row := range sheet.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", row.ID, row.Name, row.Status)
	}
	_ = tw.Flush()
}

func renderReport(w io.Writer, report attendance.MonthlyReport) {
	if report.IsEmpty() {
		fmt.Fprintln(w, emptyReportMessage)
		return
	}

	fmt.Fprintf(w, "%s: %d day(s) marked\n", report.YearMonth, report.TotalDaysMarked)
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPRESENT\tABSENT\tATTENDANCE")
	for _, s := range report.Students {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d%%\n", s.ID, s.Name, s.PresentCount, s.AbsentCount, s.Percentage)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	labels, values := report.Chart()
	renderChart(w, labels, values)
}

// renderChart draws a horizontal bar per label, values are percentages.
func renderChart(w io.Writer, labels []string, values []int) {
	fmt.Fprintln(w, chartTitle)
	var labelWidth int
	for _, l := range labels {
		if len(l) > labelWidth {
			labelWidth = len(l)
		}
	}
	for i, l := range labels {
		v := values[i]
		if v < 0 {
			v = 0
		} else if v > 100 {
			v = 100
		}
		bar := strings.Repeat("#", v*chartWidth/100)
		fmt.Fprintf(w, "%-*s |%-*s| %3d%%\n", labelWidth, l, chartWidth, bar, values[i])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
