package checkout

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// SlotPolicy generates half-hour delivery slots inside a bounded daytime
// window. All calculations run in the storefront timezone.
type SlotPolicy struct {
	Location      *time.Location
	StartHour     int // first slot start, inclusive
	EndHour       int // no slot starts at or after this hour
	MinLeadTime   time.Duration
	SuggestedLead time.Duration
}

// SlotsForDate returns the selectable slot starts for a date. For "today"
// relative to the minimum lead time, slots before the cutoff are filtered
// out; an empty result means the caller must roll forward a day.
func (p SlotPolicy) SlotsForDate(date string, now time.Time) ([]string, error) {
	day, err := time.ParseInLocation(dateLayout, date, p.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	cutoff := now.In(p.Location).Add(p.MinLeadTime)

	var slots []string
	for hour := p.StartHour; hour < p.EndHour; hour++ {
		for _, minute := range []int{0, 30} {
			start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, p.Location)
			if start.Before(cutoff) {
				continue
			}
			slots = append(slots, start.Format("15:04"))
		}
	}
	return slots, nil
}

// Suggest returns the default slot: now plus the suggested lead, rounded up
// to the next half hour. Landing at or after the window end rolls to the
// next day's first slot.
func (p SlotPolicy) Suggest(now time.Time) SlotSuggestion {
	target := roundUpToHalfHour(now.In(p.Location).Add(p.SuggestedLead))

	if target.Hour() >= p.EndHour {
		next := target.AddDate(0, 0, 1)
		first := time.Date(next.Year(), next.Month(), next.Day(), p.StartHour, 0, 0, 0, p.Location)
		return SlotSuggestion{Date: first.Format(dateLayout), Slot: first.Format("15:04")}
	}
	if target.Hour() < p.StartHour {
		target = time.Date(target.Year(), target.Month(), target.Day(), p.StartHour, 0, 0, 0, p.Location)
	}
	return SlotSuggestion{Date: target.Format(dateLayout), Slot: target.Format("15:04")}
}

// SlotTimestamp combines a date and a slot start into a concrete time.
func (p SlotPolicy) SlotTimestamp(date, slot string) (time.Time, error) {
	ts, err := time.ParseInLocation(dateLayout+" 15:04", date+" "+slot, p.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid delivery slot %q %q: %w", date, slot, err)
	}
	return ts, nil
}

func roundUpToHalfHour(t time.Time) time.Time {
	rounded := t.Truncate(30 * time.Minute)
	if rounded.Before(t) {
		rounded = rounded.Add(30 * time.Minute)
	}
	return rounded
}
