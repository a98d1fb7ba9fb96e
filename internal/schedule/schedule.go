// Package schedule decides whether a page's time-of-day windows cover a
// given moment. Everything here is pure: it is re-evaluated on every
// rotation tick and every effective-list read.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maxedmini/pi-kiosk/internal/model"
)

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return hour*60 + minute, nil
}

// MinutesOfDay returns t's position within its day, in minutes.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Active reports whether any range covers now (minutes since midnight).
// A range with start < end is the half-open window [start, end). A range
// with start >= end wraps midnight: active when now >= start or now < end,
// which makes start == end mean the full day. An empty range list is never
// active.
func Active(ranges []model.TimeRange, now int) bool {
	now = ((now % minutesPerDay) + minutesPerDay) % minutesPerDay
	for _, r := range ranges {
		start, err := ParseClock(r.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(r.End)
		if err != nil {
			continue
		}
		if start < end {
			if start <= now && now < end {
				return true
			}
		} else {
			if now >= start || now < end {
				return true
			}
		}
	}
	return false
}

// PageActive applies the schedule policy to a whole page: pages without
// scheduling are always active; scheduled pages follow their ranges.
func PageActive(p model.Page, at time.Time) bool {
	if !p.ScheduleEnabled {
		return true
	}
	return Active(p.ScheduleRanges, MinutesOfDay(at))
}

// ValidateRanges rejects malformed clocks before they reach the store.
func ValidateRanges(ranges []model.TimeRange) error {
	for _, r := range ranges {
		if _, err := ParseClock(r.Start); err != nil {
			return err
		}
		if _, err := ParseClock(r.End); err != nil {
			return err
		}
	}
	return nil
}
