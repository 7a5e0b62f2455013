// internal/models/timestamp.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a server timestamp that may arrive as an RFC3339 string,
// Unix milliseconds, or a {seconds, nanoseconds} object.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = parsed.UTC()
		return nil

	case '{':
		var obj struct {
			Seconds      *int64 `json:"seconds"`
			Nanoseconds  int64  `json:"nanoseconds"`
			USeconds     *int64 `json:"_seconds"`
			UNanoseconds int64  `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		switch {
		case obj.Seconds != nil:
			t.Time = time.Unix(*obj.Seconds, obj.Nanoseconds).UTC()
		case obj.USeconds != nil:
			t.Time = time.Unix(*obj.USeconds, obj.UNanoseconds).UTC()
		default:
			return fmt.Errorf("timestamp object has no seconds")
		}
		return nil

	default:
		var ms float64
		if err := json.Unmarshal(b, &ms); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
