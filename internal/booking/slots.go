package booking

import (
	"errors"
	"fmt"
	"time"
)

const TimeFormat = "15:04"

var (
	ErrSlotUnavailable = errors.New("time slot is not available")
	ErrInvalidSlot     = errors.New("time slot is not offered")
)

// Hours describes the bookable window of a business day.
type Hours struct {
	Open        int // hour of day, inclusive
	Close       int // hour of day, exclusive
	SlotMinutes int
}

// Slot is a bookable start time on a specific date.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Slots lists slot start times for a day in HH:MM order. A slot is only offered
// when it ends at or before closing time.
func (h Hours) Slots() []string {
	if h.SlotMinutes <= 0 || h.Close <= h.Open {
		return nil
	}
	var out []string
	for m := h.Open * 60; m+h.SlotMinutes <= h.Close*60; m += h.SlotMinutes {
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

// Offers reports whether slot is one of the day's start times.
func (h Hours) Offers(slot string) bool {
	for _, s := range h.Slots() {
		if s == slot {
			return true
		}
	}
	return false
}

// Availability marks every slot of date as available or not. booked holds the
// HH:MM slots already taken on that date.
func (h Hours) Availability(date, now time.Time, booked map[string]bool) []Slot {
	day := truncateDay(date.In(now.Location()))
	today := truncateDay(now)

	slots := h.Slots()
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		slot := Slot{Time: s, Available: true}
		switch {
		case day.Before(today):
			slot.Available, slot.Reason = false, "past"
		case isWeekend(day):
			slot.Available, slot.Reason = false, "closed"
		case booked[s]:
			slot.Available, slot.Reason = false, "booked"
		case day.Equal(today) && !slotStart(day, s).After(now):
			slot.Available, slot.Reason = false, "past"
		}
		out = append(out, slot)
	}
	return out
}

// Check validates a requested booking of slot on date against now and the
// already booked slots.
func (h Hours) Check(date, now time.Time, slot string, booked map[string]bool) error {
	if !h.Offers(slot) {
		return ErrInvalidSlot
	}
	for _, s := range h.Availability(date, now, booked) {
		if s.Time != slot {
			continue
		}
		switch {
		case s.Available:
			return nil
		case s.Reason == "booked":
			return ErrSlotUnavailable
		case s.Reason == "past":
			return ErrPastDate
		default:
			return ErrInvalidSlot
		}
	}
	return ErrInvalidSlot
}

func slotStart(day time.Time, slot string) time.Time {
	t, err := time.Parse(TimeFormat, slot)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}
