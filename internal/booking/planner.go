package booking

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Planner evaluates the calendar and slot availability in a fixed location
// using an injectable clock.
type Planner struct {
	Clock     clockwork.Clock
	Location  *time.Location
	Hours     Hours
	WeekStart time.Weekday
}

func NewPlanner(clock clockwork.Clock, loc *time.Location, hours Hours) *Planner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Planner{Clock: clock, Location: loc, Hours: hours, WeekStart: time.Sunday}
}

func (p *Planner) Now() time.Time {
	return p.Clock.Now().In(p.Location)
}

func (p *Planner) Month(year, month int) (Month, error) {
	return MonthGrid(year, month, p.Now(), p.WeekStart)
}

func (p *Planner) Availability(date string, booked map[string]bool) ([]Slot, error) {
	d, err := ParseDate(date, p.Location)
	if err != nil {
		return nil, err
	}
	return p.Hours.Availability(d, p.Now(), booked), nil
}

func (p *Planner) Check(date, slot string, booked map[string]bool) error {
	d, err := ParseDate(date, p.Location)
	if err != nil {
		return err
	}
	return p.Hours.Check(d, p.Now(), slot, booked)
}
