package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobshop-sim/jobshop-sim/sim/internal/testutil"
)

// fakeClock is a Delayer that advances instantly and records every wait.
type fakeClock struct {
	now    float64
	delays []float64
}

func (f *fakeClock) Now() float64 { return f.now }

func (f *fakeClock) Delay(d float64) error {
	if d < 0 {
		return fmt.Errorf("negative delay %v", d)
	}
	f.delays = append(f.delays, d)
	f.now += d
	return nil
}

func standardShift(t *testing.T, epoch time.Time) *Calendar {
	t.Helper()
	c, err := New(epoch, 8, 17)
	require.NoError(t, err)
	return c
}

func TestConsumeWorkingDuration_SpansOvernightGap(t *testing.T) {
	// GIVEN an 08-17 shift and minute 0 at Monday's shift opening
	c := standardShift(t, testutil.MondayShiftOpen)
	clock := &fakeClock{}

	// WHEN 600 working minutes are consumed
	require.NoError(t, c.ConsumeWorkingDuration(clock, 600))

	// THEN 540 are worked Monday, 900 are idle overnight, 60 are worked Tuesday
	assert.Equal(t, 1500.0, clock.now)
	assert.Equal(t, []float64{540, 900, 60}, clock.delays)
}

func TestConsumeWorkingDuration_FromMidnight_WaitsForOpening(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)
	clock := &fakeClock{}

	require.NoError(t, c.ConsumeWorkingDuration(clock, 600))

	assert.Equal(t, 480.0+540+900+60, clock.now)
}

func TestConsumeWorkingDuration_RepairAcrossWeekend(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)
	clock := &fakeClock{now: testutil.Minutes(4, 16, 0)} // Friday 16:00

	require.NoError(t, c.ConsumeWorkingDuration(clock, 120))

	assert.Equal(t, testutil.Minutes(7, 9, 0), clock.now) // next Monday 09:00
}

func TestWaitForShift_Saturday_AdvancesToMondayOpening(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)
	clock := &fakeClock{now: testutil.Minutes(5, 10, 0)} // Saturday 10:00

	require.NoError(t, c.WaitForShift(clock))

	assert.Equal(t, testutil.Minutes(7, 8, 0), clock.now)
	require.Len(t, clock.delays, 1)
	assert.Greater(t, clock.delays[0], 0.0)
	assert.Equal(t, time.Monday, c.Weekday(clock.now))
}

func TestWaitForShift_FridayEvening_SkipsWeekendInPositiveSteps(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)
	clock := &fakeClock{now: testutil.Minutes(4, 17, 30)} // Friday 17:30

	require.NoError(t, c.WaitForShift(clock))

	assert.Equal(t, testutil.Minutes(7, 8, 0), clock.now)
	assert.LessOrEqual(t, len(clock.delays), 3)
	for _, d := range clock.delays {
		assert.Greater(t, d, 0.0)
	}
}

func TestWaitForShift_Cases(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)
	tests := []struct {
		name string
		from float64
		want float64
	}{
		{"open shift returns immediately", testutil.Minutes(1, 10, 0), testutil.Minutes(1, 10, 0)},
		{"exactly at opening", testutil.Minutes(1, 8, 0), testutil.Minutes(1, 8, 0)},
		{"before opening", testutil.Minutes(1, 6, 0), testutil.Minutes(1, 8, 0)},
		{"exactly at closing", testutil.Minutes(1, 17, 0), testutil.Minutes(2, 8, 0)},
		{"after closing", testutil.Minutes(2, 22, 15), testutil.Minutes(3, 8, 0)},
		{"sunday", testutil.Minutes(6, 12, 0), testutil.Minutes(7, 8, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := &fakeClock{now: tc.from}
			require.NoError(t, c.WaitForShift(clock))
			assert.Equal(t, tc.want, clock.now)
		})
	}
}

func TestCalendar_WallClockQueries(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)

	assert.Equal(t, 9, c.HourOfDay(testutil.Minutes(2, 9, 59)))
	assert.False(t, c.IsWeekend(testutil.Minutes(4, 23, 59)))
	assert.True(t, c.IsWeekend(testutil.Minutes(5, 0, 0)))
	assert.True(t, c.IsWeekend(testutil.Minutes(6, 23, 0)))
	assert.Equal(t, 3, c.DayIndex(testutil.Minutes(3, 12, 0)))
	assert.True(t, time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC).Equal(c.DateTime(testutil.Minutes(1, 8, 30))))
	assert.Equal(t, "Mon 01/01/2024 08:00", c.FormatDelivery(480))
	assert.True(t, c.IsOpen(testutil.Minutes(0, 8, 0)))
	assert.False(t, c.IsOpen(testutil.Minutes(0, 17, 0)))
}

func TestCalendar_EpochAtShiftOpening_DayBoundariesFollowMidnight(t *testing.T) {
	c := standardShift(t, testutil.MondayShiftOpen)

	assert.Equal(t, 0, c.DayIndex(0))
	assert.Equal(t, 480.0, c.MinuteOfDay(0))
	assert.Equal(t, 1, c.DayIndex(960)) // Tuesday 00:00
	assert.Equal(t, 8, c.HourOfDay(0))
}

func TestCalendar_UntilNextDayOpening(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)

	assert.Equal(t, 720.0, c.UntilNextDayOpening(testutil.Minutes(0, 20, 0)))
	assert.Equal(t, 1440.0, c.UntilNextDayOpening(testutil.Minutes(0, 8, 0)))
}

func TestCalendar_WorkingMinutes(t *testing.T) {
	c := standardShift(t, testutil.MondayMidnight)

	assert.Equal(t, 5*540.0, c.WorkingMinutes(0, testutil.Minutes(7, 0, 0)))
	assert.Equal(t, 60.0, c.WorkingMinutes(testutil.Minutes(0, 16, 0), testutil.Minutes(0, 20, 0)))
	assert.Equal(t, 0.0, c.WorkingMinutes(testutil.Minutes(5, 0, 0), testutil.Minutes(7, 0, 0)))
	assert.Equal(t, 0.0, c.WorkingMinutes(10, 5))
	assert.Equal(t, 2.0, c.WorkingDays(1080))
}

func TestNew_InvalidShiftHours(t *testing.T) {
	for _, hours := range [][2]int{{17, 8}, {8, 8}, {-1, 10}, {8, 25}} {
		_, err := New(testutil.MondayMidnight, hours[0], hours[1])
		assert.Error(t, err, "hours %v", hours)
	}
}
