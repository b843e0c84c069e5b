// README: Daily time windows for night and peak-hour modifiers.
package pricing

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// TimeFlags reports which configured windows contain t. Modifiers without a window never match.
func TimeFlags(mods []TimeModifier, t time.Time) (isNight, isPeak bool) {
	minute := t.Hour()*60 + t.Minute()
	for _, m := range mods {
		if m.Start == "" || !inWindow(m.Start, m.End, minute) {
			continue
		}
		switch m.AppliesWhen {
		case Night:
			isNight = true
		case PeakHours:
			isPeak = true
		}
	}
	return isNight, isPeak
}

// inWindow treats the window as [start, end). end before start wraps midnight; equal bounds
// cover the whole day.
func inWindow(start, end string, minute int) bool {
	s, err := parseClock(start)
	if err != nil {
		return false
	}
	e, err := parseClock(end)
	if err != nil {
		return false
	}
	switch {
	case s == e:
		return true
	case s < e:
		return minute >= s && minute < e
	default:
		return minute >= s || minute < e
	}
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("clock %q: want HH:MM", v)
	}
	m := t.Hour()*60 + t.Minute()
	if m < 0 || m >= minutesPerDay {
		return 0, fmt.Errorf("clock %q out of range", v)
	}
	return m, nil
}
