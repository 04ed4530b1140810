// Package calendar maps virtual simulation minutes onto a weekly shift calendar.
//
// Minute 0 is the configured epoch instant. The plant works Monday to Friday, from
// the shift start hour (inclusive) to the shift end hour (exclusive).
package calendar

import (
	"fmt"
	"math"
	"time"
)

// MinutesPerDay is one calendar day in simulation minutes.
const MinutesPerDay = 1440

// boundaryEpsilon absorbs float drift around shift boundaries.
const boundaryEpsilon = 1e-6

// maxShiftWaits bounds WaitForShift; any instant is at most three boundary hops
// (after close → Saturday → Monday open) away from an open shift.
const maxShiftWaits = 8

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Delayer is the suspension capability a calendar needs from a process.
type Delayer interface {
	Now() float64
	Delay(d float64) error
}

// Calendar converts simulation minutes into weekday and shift awareness.
type Calendar struct {
	epoch        time.Time
	epochMinute  float64
	epochWeekday time.Weekday
	shiftStart   float64 // minute of day
	shiftEnd     float64 // minute of day
}

// New creates a calendar whose minute 0 is epoch, with a shift open from
// startHour to endHour on weekdays.
func New(epoch time.Time, startHour, endHour int) (*Calendar, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("calendar: invalid shift hours %d-%d", startHour, endHour)
	}
	midnight := time.Date(epoch.Year(), epoch.Month(), epoch.Day(), 0, 0, 0, 0, epoch.Location())
	return &Calendar{
		epoch:        epoch,
		epochMinute:  epoch.Sub(midnight).Minutes(),
		epochWeekday: midnight.Weekday(),
		shiftStart:   float64(startHour * 60),
		shiftEnd:     float64(endHour * 60),
	}, nil
}

// Epoch returns the instant corresponding to minute 0.
func (c *Calendar) Epoch() time.Time { return c.epoch }

// ShiftMinutes returns the length of one working shift.
func (c *Calendar) ShiftMinutes() float64 { return c.shiftEnd - c.shiftStart }

// ShiftStartMinute returns the shift opening as minute of day.
func (c *Calendar) ShiftStartMinute() float64 { return c.shiftStart }

// ShiftEndMinute returns the shift closing as minute of day.
func (c *Calendar) ShiftEndMinute() float64 { return c.shiftEnd }

// DateTime returns epoch + minutes.
func (c *Calendar) DateTime(minutes float64) time.Time {
	return c.epoch.Add(time.Duration(math.Round(minutes * float64(time.Minute))))
}

// split returns the calendar day index (days since the epoch's midnight) and the
// minute of that day.
func (c *Calendar) split(minutes float64) (int, float64) {
	abs := c.epochMinute + minutes
	day := math.Floor(abs / MinutesPerDay)
	return int(day), abs - day*MinutesPerDay
}

// DayIndex returns the number of calendar midnights crossed since the epoch.
func (c *Calendar) DayIndex(minutes float64) int {
	day, _ := c.split(minutes)
	return day
}

// MinuteOfDay returns the minutes elapsed since the last midnight.
func (c *Calendar) MinuteOfDay(minutes float64) float64 {
	_, mod := c.split(minutes)
	return mod
}

// HourOfDay returns the wall-clock hour.
func (c *Calendar) HourOfDay(minutes float64) int {
	return int(c.MinuteOfDay(minutes) / 60)
}

// Weekday returns the weekday of the given instant.
func (c *Calendar) Weekday(minutes float64) time.Weekday {
	day, _ := c.split(minutes)
	return c.weekdayOf(day)
}

func (c *Calendar) weekdayOf(day int) time.Weekday {
	return time.Weekday(((int(c.epochWeekday)+day)%7 + 7) % 7)
}

// IsWeekend reports whether the instant falls on Saturday or Sunday.
func (c *Calendar) IsWeekend(minutes float64) bool {
	wd := c.Weekday(minutes)
	return wd == time.Saturday || wd == time.Sunday
}

// IsOpen reports whether the instant lies inside a working shift.
func (c *Calendar) IsOpen(minutes float64) bool {
	return c.untilOpen(minutes) == 0
}

// untilOpen returns how long to wait before the next boundary towards an open
// shift, or 0 when the shift is already open. The returned wait is not always the
// full distance to the next opening: from Friday evening it stops at Saturday's
// would-be opening, and the caller loops.
func (c *Calendar) untilOpen(minutes float64) float64 {
	day, mod := c.split(minutes)
	switch wd := c.weekdayOf(day); wd {
	case time.Saturday, time.Sunday:
		daysToMonday := (8 - int(wd)) % 7
		return float64(daysToMonday)*MinutesPerDay - mod + c.shiftStart
	}
	if mod >= c.shiftEnd-boundaryEpsilon {
		return MinutesPerDay - mod + c.shiftStart
	}
	if mod < c.shiftStart-boundaryEpsilon {
		return c.shiftStart - mod
	}
	return 0
}

// UntilNextDayOpening returns the wait from minutes to the next calendar day's
// shift opening, ignoring weekends.
func (c *Calendar) UntilNextDayOpening(minutes float64) float64 {
	return MinutesPerDay - c.MinuteOfDay(minutes) + c.shiftStart
}

// WaitForShift suspends d until the plant is open. It returns immediately when the
// current instant is already inside a shift.
func (c *Calendar) WaitForShift(d Delayer) error {
	for i := 0; i < maxShiftWaits; i++ {
		wait := c.untilOpen(d.Now())
		if wait <= 0 {
			return nil
		}
		if err := d.Delay(wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("calendar: no open shift reached from t=%.3f after %d waits", d.Now(), maxShiftWaits)
}

// ConsumeWorkingDuration spends total working minutes, pausing across shift
// closures and weekends.
func (c *Calendar) ConsumeWorkingDuration(d Delayer, total float64) error {
	for total > boundaryEpsilon {
		if err := c.WaitForShift(d); err != nil {
			return err
		}
		remaining := c.shiftEnd - c.MinuteOfDay(d.Now())
		if remaining <= boundaryEpsilon {
			continue
		}
		step := math.Min(total, remaining)
		if err := d.Delay(step); err != nil {
			return err
		}
		total -= step
	}
	return nil
}

// WorkingMinutes returns the shift minutes available between two instants.
func (c *Calendar) WorkingMinutes(from, to float64) float64 {
	if to <= from {
		return 0
	}
	a, b := c.epochMinute+from, c.epochMinute+to
	total := 0.0
	for day := math.Floor(a / MinutesPerDay); day*MinutesPerDay < b; day++ {
		wd := c.weekdayOf(int(day))
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		lo := math.Max(day*MinutesPerDay+c.shiftStart, a)
		hi := math.Min(day*MinutesPerDay+c.shiftEnd, b)
		if hi > lo {
			total += hi - lo
		}
	}
	return total
}

// WorkingDays expresses an elapsed span in shift-length days.
func (c *Calendar) WorkingDays(elapsed float64) float64 {
	shift := c.ShiftMinutes()
	if shift <= 0 {
		return 0
	}
	return elapsed / shift
}

// FormatDelivery renders an instant like "Mon 01/01/2024 08:00".
func (c *Calendar) FormatDelivery(minutes float64) string {
	dt := c.DateTime(minutes)
	return fmt.Sprintf("%s %s", dayNames[dt.Weekday()], dt.Format("02/01/2006 15:04"))
}
