package utils

import "time"

// FromEpochMillis converts milliseconds since the Unix epoch to a UTC time.
// Zero maps to the zero time so unset timestamps stay unset.
func FromEpochMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// ToEpochMillis converts a time to milliseconds since the Unix epoch
func ToEpochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
