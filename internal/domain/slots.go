package domain

import "time"

const (
	// DefaultLeadTime is the minimum runway between "now" and a pickup
	// moment (or closing time) for that moment to still be offered.
	DefaultLeadTime = 30 * time.Minute

	// DefaultSlotInterval is the granularity at which pickup times are offered.
	DefaultSlotInterval = 30 * time.Minute
)

// IsASAPAvailable reports whether an ASAP order can still be placed right
// now: the restaurant must be open and closing must be at least the lead
// buffer away.
func IsASAPAvailable(schedule []OperatingHours, now time.Time, lead time.Duration) bool {
	hours, ok := ResolveHours(schedule, now)
	if !ok || hours.Closed {
		return false
	}

	open, close, ok := hoursWindow(hours, now)
	if !ok {
		return false
	}

	return !now.Before(open) && now.Before(close) && now.Add(lead).Before(close)
}

// GenerateSlots computes the valid future pickup times for a date, formatted
// as "15:04" and aligned to the interval boundary from midnight. For today's
// date every candidate is re-checked to be strictly after now, so a slot can
// never point into the past even if the clock moved while iterating.
func GenerateSlots(schedule []OperatingHours, date, now time.Time, interval, lead time.Duration) []string {
	hours, ok := ResolveHours(schedule, date)
	if !ok || hours.Closed {
		return nil
	}

	open, close, ok := hoursWindow(hours, date)
	if !ok {
		return nil
	}

	start := open
	today := sameDate(date, now)
	if today {
		if earliest := now.Add(lead); earliest.After(start) {
			start = earliest
		}
	}

	// Round up to the next interval boundary relative to midnight.
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := start.Sub(midnight)
	if rem := offset % interval; rem != 0 {
		offset += interval - rem
	}

	var slots []string
	for t := midnight.Add(offset); t.Before(close); t = t.Add(interval) {
		if today && !t.After(now) {
			continue
		}
		slots = append(slots, t.Format("15:04"))
	}

	return slots
}

// hoursWindow resolves an entry's open/close clocks onto a concrete date.
// Schedules where close <= open get no same-day interpretation and are
// treated as closed; see DESIGN.md for the overnight-hours policy.
func hoursWindow(hours OperatingHours, date time.Time) (open, close time.Time, ok bool) {
	openMin, err := parseClock(hours.Open)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	closeMin, err := parseClock(hours.Close)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if closeMin <= openMin {
		return time.Time{}, time.Time{}, false
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return midnight.Add(time.Duration(openMin) * time.Minute),
		midnight.Add(time.Duration(closeMin) * time.Minute),
		true
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
