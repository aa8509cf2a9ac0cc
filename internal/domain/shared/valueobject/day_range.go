package valueobject

import (
	"fmt"
	"strings"
	"time"
)

// DayLabelLayout is the layout of a calendar-day label (YYYY-MM-DD)
const DayLabelLayout = "2006-01-02"

// DayBounds is one calendar day in a specific time zone.
// Start is inclusive and End is exclusive; both are expressed in UTC.
type DayBounds struct {
	Start time.Time
	End   time.Time
	Label string
}

// LoadZone resolves an IANA zone name. A blank name resolves to UTC.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return loc, nil
}

// DayRangeIn returns the bounds of the calendar day that is offset days after the
// day containing ref, as observed in loc. A nil loc means UTC.
// Days are computed from local midnights, so a DST transition day spans 23 or 25 hours.
func DayRangeIn(loc *time.Location, ref time.Time, offset int) DayBounds {
	if loc == nil {
		loc = time.UTC
	}
	local := ref.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day()+offset, 0, 0, 0, 0, loc)
	end := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, loc)
	return DayBounds{
		Start: start.UTC(),
		End:   end.UTC(),
		Label: start.Format(DayLabelLayout),
	}
}

// Contains reports whether t falls inside the day
func (d DayBounds) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

// NormalizeDayLabel trims a stored date to its YYYY-MM-DD label.
// Values that do not start with a valid label yield an empty string.
func NormalizeDayLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(DayLabelLayout) {
		return ""
	}
	label := raw[:len(DayLabelLayout)]
	if _, err := time.Parse(DayLabelLayout, label); err != nil {
		return ""
	}
	return label
}
