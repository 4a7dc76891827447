package shift

import (
	"fmt"
	"strconv"
	"strings"
)

const secondsPerDay = 24 * 60 * 60

// ClockTime is a time of day with second precision, stored as seconds since
// midnight.
type ClockTime int

// ParseClockTime parses "HH:MM:SS" or "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM:SS", s)
	}

	limits := []int{23, 59, 59}
	var total int
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("invalid time %q: want HH:MM:SS", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time %q: want HH:MM:SS", s)
		}
		switch i {
		case 0:
			total += n * 3600
		case 1:
			total += n * 60
		default:
			total += n
		}
	}
	return ClockTime(total), nil
}

// MustParseClockTime is ParseClockTime for constants and tests.
func MustParseClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Hour() int   { return int(c) / 3600 }
func (c ClockTime) Minute() int { return int(c) % 3600 / 60 }
func (c ClockTime) Second() int { return int(c) % 60 }

// TotalMinutes is the number of whole minutes since midnight.
func (c ClockTime) TotalMinutes() int { return int(c) / 60 }

// Valid reports whether c falls within a single day.
func (c ClockTime) Valid() bool { return c >= 0 && c < secondsPerDay }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}
