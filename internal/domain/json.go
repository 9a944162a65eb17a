package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// TravelDateLayout is the wire form of a travel date.
	TravelDateLayout = "2006-01-02"
	// localDateTimeLayout is ISO-8601 local time without a zone, matching
	// the arrival stamps stored in train schedules.
	localDateTimeLayout = "2006-01-02T15:04:05"
)

// ParseTravelDate parses a yyyy-MM-dd travel date.
func ParseTravelDate(s string) (time.Time, error) {
	return time.Parse(TravelDateLayout, s)
}

// LocalDateTime is a timestamp serialized as ISO-8601 local time without a
// zone offset ("2006-01-02T15:04:05").
type LocalDateTime struct {
	time.Time
}

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t}
}

func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(localDateTimeLayout))
}

func (t *LocalDateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = LocalDateTime{}
		return nil
	}
	parsed, err := time.Parse(localDateTimeLayout, s)
	if err != nil {
		return fmt.Errorf("domain: parse local datetime %q: %w", s, err)
	}
	*t = LocalDateTime{Time: parsed}
	return nil
}

// Seat is one cell of a seat grid, serialized as a two-element [row, col]
// array to stay compatible with the bookedSeatsIndex wire format.
type Seat struct {
	Row int
	Col int
}

func (s Seat) MarshalJSON() ([]byte, error) {
	return json.Marshal([]int{s.Row, s.Col})
}

func (s *Seat) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("domain: seat index must be a [row, col] pair, got %d elements", len(pair))
	}
	s.Row, s.Col = pair[0], pair[1]
	return nil
}
