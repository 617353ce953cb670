package model

import (
	"encoding/json"
	"time"
)

// Record is a single key/value entry in the local store. ID is the primary key;
// Value holds the JSON encoding of whatever the caller stored.
type Record struct {
	ID        string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// Decode unmarshals the record value into v.
func (r Record) Decode(v any) error {
	return json.Unmarshal(r.Value, v)
}

// IsStale reports whether the record is older than ttl at the given instant.
// A non-positive ttl means records never go stale.
func (r Record) IsStale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(r.UpdatedAt) > ttl
}
