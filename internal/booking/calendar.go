// Package booking generates the consultation booking calendar and the time
// slots that can be reserved on a given day.
package booking

import (
	"errors"
	"fmt"
	"time"
)

const DateFormat = "2006-01-02"

var (
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrPastDate     = errors.New("date is in the past")
)

// Day is one cell of a month grid.
type Day struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	InMonth bool   `json:"in_month"`
	Past    bool   `json:"past"`
	Today   bool   `json:"today"`
	Weekend bool   `json:"weekend"`
}

// Disabled reports whether the cell cannot be booked.
func (d Day) Disabled() bool {
	return !d.InMonth || d.Past || d.Weekend
}

// Month is a calendar page: whole weeks covering every day of the month.
type Month struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	WeekStart string  `json:"week_start"`
	Weeks     [][]Day `json:"weeks"`
}

// MonthGrid builds the calendar page for year/month. Cells before the first and
// after the last day belong to adjacent months. Past is evaluated against the
// calendar date of now in now's location.
func MonthGrid(year, month int, now time.Time, weekStart time.Weekday) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, ErrInvalidMonth
	}
	loc := now.Location()
	today := truncateDay(now)
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7
	cursor := first.AddDate(0, 0, -lead)

	out := Month{Year: year, Month: month, WeekStart: weekStart.String()}
	for !cursor.After(last) {
		week := make([]Day, 7)
		for i := range week {
			week[i] = Day{
				Date:    cursor.Format(DateFormat),
				Day:     cursor.Day(),
				InMonth: cursor.Month() == first.Month(),
				Past:    cursor.Before(today),
				Today:   cursor.Equal(today),
				Weekend: isWeekend(cursor),
			}
			cursor = cursor.AddDate(0, 0, 1)
		}
		out.Weeks = append(out.Weeks, week)
	}
	return out, nil
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
