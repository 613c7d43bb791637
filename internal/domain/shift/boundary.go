package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event is the kind of attendance event being classified.
type Event string

const (
	EventCheckIn  Event = "CHECK_IN"
	EventCheckOut Event = "CHECK_OUT"
)

// BoundaryRules are the tolerances applied around shift start and end.
type BoundaryRules struct {
	LateGraceMinutes  int
	EarlyGraceMinutes int
}

// Boundary flags an event against its shift. Only the flag matching the event kind can be set.
type Boundary struct {
	IsLate  bool
	IsEarly bool
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return hour*60 + minute, nil
}

// IsValidClock reports whether clock is a well-formed "HH:MM" value.
func IsValidClock(clock string) bool {
	_, err := ParseClock(clock)
	return err == nil
}

// Classify compares the event's wall-clock minute in loc against the shift window.
// Seconds are truncated, so 08:00:59 counts as 08:00. A nil shift yields no flags.
// Overnight shifts (end before start) are compared on the same calendar day.
func Classify(event time.Time, s *Shift, kind Event, rules BoundaryRules, loc *time.Location) (Boundary, error) {
	if s == nil {
		return Boundary{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	local := event.In(loc)
	eventMinute := local.Hour()*60 + local.Minute()

	switch kind {
	case EventCheckIn:
		start, err := ParseClock(s.StartTime)
		if err != nil {
			return Boundary{}, err
		}
		return Boundary{IsLate: eventMinute > start+rules.LateGraceMinutes}, nil
	case EventCheckOut:
		end, err := ParseClock(s.EndTime)
		if err != nil {
			return Boundary{}, err
		}
		return Boundary{IsEarly: eventMinute < end-rules.EarlyGraceMinutes}, nil
	default:
		return Boundary{}, fmt.Errorf("unknown attendance event %q", kind)
	}
}
