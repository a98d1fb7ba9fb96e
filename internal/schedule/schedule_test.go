package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/maxedmini/pi-kiosk/internal/model"
)

func minutes(clock string) int {
	m, err := ParseClock(clock)
	if err != nil {
		panic(err)
	}
	return m
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 9*60+30, m)

	m, err = ParseClock("00:00")
	assert.NoError(t, err)
	assert.Equal(t, 0, m)

	m, err = ParseClock("23:59")
	assert.NoError(t, err)
	assert.Equal(t, 23*60+59, m)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "-1:30"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestActiveDaytimeWindow(t *testing.T) {
	ranges := []model.TimeRange{{Start: "09:00", End: "17:00"}}

	assert.True(t, Active(ranges, minutes("09:00")), "start is inclusive")
	assert.True(t, Active(ranges, minutes("12:00")))
	assert.False(t, Active(ranges, minutes("17:00")), "end is exclusive")
	assert.False(t, Active(ranges, minutes("08:59")))
	assert.False(t, Active(ranges, minutes("22:00")))
}

func TestActiveWrapsMidnight(t *testing.T) {
	ranges := []model.TimeRange{{Start: "22:00", End: "06:00"}}

	assert.True(t, Active(ranges, minutes("23:00")))
	assert.True(t, Active(ranges, minutes("22:00")))
	assert.True(t, Active(ranges, minutes("00:30")))
	assert.True(t, Active(ranges, minutes("05:59")))
	assert.False(t, Active(ranges, minutes("06:00")))
	assert.False(t, Active(ranges, minutes("12:00")))
	assert.False(t, Active(ranges, minutes("21:59")))
}

func TestActiveEqualEndpointsCoverFullDay(t *testing.T) {
	ranges := []model.TimeRange{{Start: "09:00", End: "09:00"}}

	for _, clock := range []string{"00:00", "08:59", "09:00", "15:00", "23:59"} {
		assert.True(t, Active(ranges, minutes(clock)), "clock %s", clock)
	}
}

func TestActiveEmptyRangesNeverActive(t *testing.T) {
	assert.False(t, Active(nil, minutes("12:00")))
	assert.False(t, Active([]model.TimeRange{}, minutes("12:00")))
}

func TestActiveRangesAreORed(t *testing.T) {
	ranges := []model.TimeRange{
		{Start: "08:00", End: "10:00"},
		{Start: "14:00", End: "16:00"},
	}

	assert.True(t, Active(ranges, minutes("09:00")))
	assert.True(t, Active(ranges, minutes("15:00")))
	assert.False(t, Active(ranges, minutes("12:00")))
}

func TestActiveSkipsMalformedRange(t *testing.T) {
	ranges := []model.TimeRange{
		{Start: "bogus", End: "10:00"},
		{Start: "14:00", End: "16:00"},
	}

	assert.False(t, Active(ranges, minutes("09:00")))
	assert.True(t, Active(ranges, minutes("15:00")))
}

func TestPageActive(t *testing.T) {
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	night := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)

	unscheduled := model.Page{ScheduleEnabled: false}
	assert.True(t, PageActive(unscheduled, noon))

	// Schedule enabled with no ranges stays inactive.
	bare := model.Page{ScheduleEnabled: true}
	assert.False(t, PageActive(bare, noon))

	scheduled := model.Page{
		ScheduleEnabled: true,
		ScheduleRanges:  model.ScheduleRanges{{Start: "22:00", End: "06:00"}},
	}
	assert.False(t, PageActive(scheduled, noon))
	assert.True(t, PageActive(scheduled, night))
}

func TestValidateRanges(t *testing.T) {
	assert.NoError(t, ValidateRanges(nil))
	assert.NoError(t, ValidateRanges([]model.TimeRange{{Start: "09:00", End: "17:00"}}))
	assert.Error(t, ValidateRanges([]model.TimeRange{{Start: "25:00", End: "17:00"}}))
	assert.Error(t, ValidateRanges([]model.TimeRange{{Start: "09:00", End: "17:61"}}))
}
