package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalDateTimeLayout is the backend's "yyyy-MM-dd HH:mm" event time format.
const LocalDateTimeLayout = "2006-01-02 15:04"

var localDateTimeLayouts = []string{
	LocalDateTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// LocalDateTime is a zone-less backend timestamp.
type LocalDateTime struct {
	time.Time
}

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t}
}

func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(LocalDateTimeLayout))
}

func (t *LocalDateTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range localDateTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid local date-time %q", raw)
}

func (t LocalDateTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(LocalDateTimeLayout)
}
