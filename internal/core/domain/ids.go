package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID identifies a fleet entity. The fleet API emits numeric identifiers for
// trains, carriages and maintenances; ID accepts both numbers and strings on
// decode and always encodes as a string.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// naiveISO is the timestamp layout the fleet server produces for maintenance
// windows: ISO 8601 without a zone designator.
const naiveISO = "2006-01-02T15:04:05"

// Timestamp is a point in time exchanged with the fleet API. Values without a
// zone are read as UTC.
type Timestamp struct {
	time.Time
}

// At wraps t as a Timestamp.
func At(t time.Time) Timestamp { return Timestamp{Time: t.UTC()} }

// ParseTimestamp accepts RFC 3339 and zone-less ISO 8601 values.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return At(t), nil
	}
	t, err := time.ParseInLocation(naiveISO, s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return At(t), nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339))
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
