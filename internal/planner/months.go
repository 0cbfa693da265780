package planner

import "time"

// DefaultMonthCount is how many months the month picker offers.
const DefaultMonthCount = 12

// MonthLabelLayout formats a month option, e.g. "March 2025".
const MonthLabelLayout = "January 2006"

// MonthOptions returns n consecutive "Month Year" labels starting with the
// month containing now.
func MonthOptions(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	opts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		opts = append(opts, first.AddDate(0, i, 0).Format(MonthLabelLayout))
	}
	return opts
}
