package model

import (
	"encoding/json"
	"time"
)

// Timestamp is a point in time transmitted as a structured seconds-based
// value: {"seconds": <unix seconds>, "nanos": <fractional nanoseconds>}.
// The dashboard converts this shape rather than a bare epoch-millis number,
// so every stored entity marshals timestamps through this type.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t as a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

type timestampWire struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(timestampWire{
		Seconds: t.Unix(),
		Nanos:   int32(t.Nanosecond()),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var w timestampWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.Time = time.Unix(w.Seconds, int64(w.Nanos)).UTC()
	return nil
}
