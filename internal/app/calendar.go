package app

import "time"

// MarketDays lists the weekdays (Mon-Fri) from the calendar day of from
// through the calendar day of to, each at midnight plus open.
func MarketDays(from, to time.Time, open time.Duration) []time.Time {
	var days []time.Time
	loc := from.Location()
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	for !day.After(last) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, day.Add(open))
		}
		day = day.AddDate(0, 0, 1)
	}
	return days
}
