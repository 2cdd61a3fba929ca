package sqlbase

import (
	"fmt"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

// Timestamp scans a nullable timestamp column whether the driver returns it
// as time.Time or as text.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

func (t *Timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false

		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true

		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", value)
	}
}

func (t *Timestamp) parse(text string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			t.Time, t.Valid = parsed.UTC(), true

			return nil
		}
	}

	return fmt.Errorf("unrecognized timestamp %q", text)
}
