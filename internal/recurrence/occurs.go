package recurrence

import "time"

// Occurs reports whether the rule falls on the calendar day of t. An invalid
// rule never occurs.
func (r Rule) Occurs(t time.Time) bool {
	switch r.kind() {
	case Daily:
		return true
	case Weekly:
		days, err := r.weekdays()
		return err == nil && containsDay(days, t.Weekday())
	case Monthly:
		n, err := r.dayOfMonth()
		if err != nil {
			return false
		}
		// Months shorter than the configured day fall on their last day.
		return t.Day() == min(n, daysInMonth(t.Year(), t.Month()))
	case WeekInMonth:
		days, err := r.weekdays()
		if err != nil || !containsDay(days, t.Weekday()) {
			return false
		}
		w, err := r.week()
		if err != nil {
			return false
		}
		if w == -1 {
			return t.Day()+7 > daysInMonth(t.Year(), t.Month())
		}
		return (t.Day()-1)/7+1 == w
	case Yearly:
		m, d, err := r.monthDay()
		if err != nil || t.Month() != m {
			return false
		}
		// Feb 29 falls on Feb 28 in common years.
		return t.Day() == min(d, daysInMonth(t.Year(), m))
	}
	return false
}

func containsDay(days []time.Weekday, d time.Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
