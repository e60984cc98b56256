package attendance

import (
	"math"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/roster"
)

// DayReader is the read side of RecordStore the aggregation needs.
type DayReader interface {
	DatesInMonth(yearMonth string) []string
	GetDay(date string) DayRecord
}

type StudentAggregate struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PresentCount int    `json:"presentCount"`
	AbsentCount  int    `json:"absentCount"`
	// TotalDays is the month's TotalDaysMarked, the same for every student.
	TotalDays  int `json:"totalDays"`
	Percentage int `json:"percentage"`
}

// MonthlyReport is the per-student aggregate of one month, in roster order.
// A month with no marked date is the Empty report: no rows, TotalDaysMarked == 0.
type MonthlyReport struct {
	YearMonth       string             `json:"yearMonth"`
	TotalDaysMarked int                `json:"totalDaysMarked"`
	Students        []StudentAggregate `json:"students"`
}

func (r MonthlyReport) IsEmpty() bool {
	return r.TotalDaysMarked == 0
}

// Chart returns the bar chart series: student names and their percentages.
func (r MonthlyReport) Chart() (labels []string, values []int) {
	labels = make([]string, 0, len(r.Students))
	values = make([]int, 0, len(r.Students))
	for _, s := range r.Students {
		labels = append(labels, s.Name)
		values = append(values, s.Percentage)
	}
	return labels, values
}

// Percentage is round(present / (present+absent) * 100), 0 when nothing was marked.
func Percentage(present, absent int) int {
	marked := present + absent
	if marked <= 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(marked) * 100))
}

// AggregateMonth counts, for each roster student, the Present and Absent marks over every
// marked date of yearMonth. Students never marked that month are kept with zero counts.
func AggregateMonth(r roster.Roster, days DayReader, yearMonth string) MonthlyReport {
	report := MonthlyReport{YearMonth: yearMonth}
	if !core.IsYearMonth(yearMonth) {
		return report
	}

	dates := days.DatesInMonth(yearMonth)
	if len(dates) == 0 {
		return report
	}
	report.TotalDaysMarked = len(dates)

	students := r.Students()
	report.Students = make([]StudentAggregate, len(students))
	for i, s := range students {
		report.Students[i] = StudentAggregate{ID: s.ID, Name: s.Name, TotalDays: report.TotalDaysMarked}
	}

	for _, date := range dates {
		day := days.GetDay(date)
		for i := range report.Students {
			switch day[report.Students[i].ID] {
			case Present:
				report.Students[i].PresentCount++
			case Absent:
				report.Students[i].AbsentCount++
			}
		}
	}

	for i := range report.Students {
		report.Students[i].Percentage = Percentage(report.Students[i].PresentCount, report.Students[i].AbsentCount)
	}
	return report
}
