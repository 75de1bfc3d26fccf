package booking

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hours = Hours{Open: 9, Close: 17, SlotMinutes: 60}

func TestMonthGrid_Shape(t *testing.T) {
	// March 2026 starts on a Sunday and has 31 days.
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	m, err := MonthGrid(2026, 3, now, time.Sunday)
	require.NoError(t, err)

	require.Len(t, m.Weeks, 5)
	first := m.Weeks[0][0]
	assert.Equal(t, "2026-03-01", first.Date)
	assert.True(t, first.InMonth)

	inMonth := 0
	for _, w := range m.Weeks {
		require.Len(t, w, 7)
		for _, d := range w {
			if d.InMonth {
				inMonth++
			}
		}
	}
	assert.Equal(t, 31, inMonth)

	last := m.Weeks[4][6]
	assert.Equal(t, "2026-04-04", last.Date)
	assert.False(t, last.InMonth)
}

func TestMonthGrid_LeadingCells(t *testing.T) {
	// April 2026 starts on a Wednesday.
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := MonthGrid(2026, 4, now, time.Sunday)
	require.NoError(t, err)

	lead := m.Weeks[0][:3]
	for _, d := range lead {
		assert.False(t, d.InMonth)
		assert.True(t, d.Disabled())
	}
	assert.Equal(t, "2026-03-29", lead[0].Date)
	assert.Equal(t, "2026-04-01", m.Weeks[0][3].Date)

	mon, err := MonthGrid(2026, 4, now, time.Monday)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-30", mon.Weeks[0][0].Date)
	assert.Equal(t, "Monday", mon.WeekStart)
}

func TestMonthGrid_PastAndToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	m, err := MonthGrid(2026, 3, now, time.Sunday)
	require.NoError(t, err)

	cells := map[string]Day{}
	for _, w := range m.Weeks {
		for _, d := range w {
			cells[d.Date] = d
		}
	}
	assert.True(t, cells["2026-03-09"].Past)
	assert.False(t, cells["2026-03-10"].Past)
	assert.True(t, cells["2026-03-10"].Today)
	assert.False(t, cells["2026-03-11"].Past)
	assert.True(t, cells["2026-03-14"].Weekend)
	assert.True(t, cells["2026-03-14"].Disabled())
	assert.False(t, cells["2026-03-11"].Disabled())
}

func TestMonthGrid_InvalidMonth(t *testing.T) {
	_, err := MonthGrid(2026, 13, time.Now(), time.Sunday)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = MonthGrid(2026, 0, time.Now(), time.Sunday)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestHours_Slots(t *testing.T) {
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, hours.Slots())
	assert.Equal(t, []string{"09:00", "09:45"}, Hours{Open: 9, Close: 11, SlotMinutes: 45}.Slots())
	assert.Nil(t, Hours{Open: 9, Close: 9, SlotMinutes: 30}.Slots())
	assert.True(t, hours.Offers("16:00"))
	assert.False(t, hours.Offers("17:00"))
	assert.False(t, hours.Offers("09:30"))
}

func TestHours_Availability(t *testing.T) {
	// Tuesday 10 March 2026, 10:30.
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	today := hours.Availability(now, now, map[string]bool{"14:00": true})
	byTime := map[string]Slot{}
	for _, s := range today {
		byTime[s.Time] = s
	}
	assert.Equal(t, "past", byTime["09:00"].Reason)
	assert.Equal(t, "past", byTime["10:00"].Reason)
	assert.True(t, byTime["11:00"].Available)
	assert.False(t, byTime["14:00"].Available)
	assert.Equal(t, "booked", byTime["14:00"].Reason)

	yesterday := hours.Availability(now.AddDate(0, 0, -1), now, nil)
	for _, s := range yesterday {
		assert.False(t, s.Available)
		assert.Equal(t, "past", s.Reason)
	}

	saturday := hours.Availability(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), now, nil)
	for _, s := range saturday {
		assert.Equal(t, "closed", s.Reason)
	}
}

func TestPlanner_Check(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC))
	p := NewPlanner(clock, time.UTC, hours)

	booked := map[string]bool{"14:00": true}
	assert.NoError(t, p.Check("2026-03-11", "14:00", nil))
	assert.ErrorIs(t, p.Check("2026-03-10", "14:00", booked), ErrSlotUnavailable)
	assert.ErrorIs(t, p.Check("2026-03-10", "09:00", nil), ErrPastDate)
	assert.ErrorIs(t, p.Check("2026-03-09", "11:00", nil), ErrPastDate)
	assert.ErrorIs(t, p.Check("2026-03-14", "11:00", nil), ErrInvalidSlot)
	assert.ErrorIs(t, p.Check("2026-03-11", "08:00", nil), ErrInvalidSlot)
	assert.Error(t, p.Check("11/03/2026", "11:00", nil))

	clock.Advance(24 * time.Hour)
	assert.ErrorIs(t, p.Check("2026-03-10", "15:00", nil), ErrPastDate)
}

func TestPlanner_UsesLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	// 20:00 UTC on 10 March is already 04:00 on 11 March in Manila.
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC))
	p := NewPlanner(clock, manila, hours)

	m, err := p.Month(2026, 3)
	require.NoError(t, err)
	for _, w := range m.Weeks {
		for _, d := range w {
			if d.Date == "2026-03-10" {
				assert.True(t, d.Past)
			}
			if d.Date == "2026-03-11" {
				assert.True(t, d.Today)
			}
		}
	}

	slots, err := p.Availability("2026-03-11", nil)
	require.NoError(t, err)
	assert.True(t, slots[0].Available)
}
