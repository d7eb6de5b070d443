package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is how often a task repeats.
type Kind string

const (
	Daily       Kind = "Daily"
	Weekly      Kind = "Weekly"
	Monthly     Kind = "Monthly"
	WeekInMonth Kind = "WeekInMonth"
	Yearly      Kind = "Yearly"
)

// DateLayout is the calendar date format used by rules and agendas.
const DateLayout = "2006-01-02"

var dayNames = map[string]time.Weekday{
	"su": time.Sunday, "sun": time.Sunday, "sunday": time.Sunday,
	"mo": time.Monday, "mon": time.Monday, "monday": time.Monday,
	"tu": time.Tuesday, "tue": time.Tuesday, "tuesday": time.Tuesday,
	"we": time.Wednesday, "wed": time.Wednesday, "wednesday": time.Wednesday,
	"th": time.Thursday, "thu": time.Thursday, "thursday": time.Thursday,
	"fr": time.Friday, "fri": time.Friday, "friday": time.Friday,
	"sa": time.Saturday, "sat": time.Saturday, "saturday": time.Saturday,
}

// Rule is the recurrence of a household task. The zero value repeats daily.
//
// Weekdays applies to Weekly and WeekInMonth, Day (day of month, 1-31) to
// Monthly, WeekOfMonth ("1".."5" or "last") to WeekInMonth and Date
// ("MM-DD" or "YYYY-MM-DD") to Yearly.
type Rule struct {
	Frequency   Kind     `json:"frequency"`
	Weekdays    []string `json:"weekdays,omitempty"`
	Day         string   `json:"day,omitempty"`
	Date        string   `json:"date,omitempty"`
	WeekOfMonth string   `json:"weekOfMonth,omitempty"`
}

func (r Rule) kind() Kind {
	if r.Frequency == "" {
		return Daily
	}
	return r.Frequency
}

// Validate reports whether the rule carries the fields its kind needs.
func (r Rule) Validate() error {
	switch r.kind() {
	case Daily:
		return nil
	case Weekly:
		_, err := r.weekdays()
		return err
	case Monthly:
		_, err := r.dayOfMonth()
		return err
	case WeekInMonth:
		if _, err := r.weekdays(); err != nil {
			return err
		}
		_, err := r.week()
		return err
	case Yearly:
		_, _, err := r.monthDay()
		return err
	default:
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}
}

// Describe returns a short human readable form of the rule.
func (r Rule) Describe() string {
	switch r.kind() {
	case Weekly:
		return "weekly on " + strings.Join(r.Weekdays, ", ")
	case Monthly:
		return "monthly on day " + r.Day
	case WeekInMonth:
		return fmt.Sprintf("week %s of the month on %s", r.WeekOfMonth, strings.Join(r.Weekdays, ", "))
	case Yearly:
		return "yearly on " + r.Date
	default:
		return "daily"
	}
}

func (r Rule) weekdays() ([]time.Weekday, error) {
	if len(r.Weekdays) == 0 {
		return nil, fmt.Errorf("%s frequency needs at least one weekday", r.kind())
	}
	days := make([]time.Weekday, 0, len(r.Weekdays))
	for _, name := range r.Weekdays {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

func (r Rule) dayOfMonth() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.Day))
	if err != nil || n < 1 || n > 31 {
		return 0, fmt.Errorf("invalid day of month: %q", r.Day)
	}
	return n, nil
}

// week returns 1-5, or -1 for the last week of the month.
func (r Rule) week() (int, error) {
	v := strings.ToLower(strings.TrimSpace(r.WeekOfMonth))
	if v == "last" {
		return -1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 5 {
		return 0, fmt.Errorf("invalid week of month: %q", r.WeekOfMonth)
	}
	return n, nil
}

func (r Rule) monthDay() (time.Month, int, error) {
	v := strings.TrimSpace(r.Date)
	layout := "01-02"
	if len(v) == len(DateLayout) {
		layout = DateLayout
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid yearly date: %q", r.Date)
	}
	return t.Month(), t.Day(), nil
}

// ParseWeekday accepts English day names and their two or three letter
// abbreviations in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday: %q", name)
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
