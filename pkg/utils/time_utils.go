package utils

import "time"

// NowUnixNano is the clock used for row timestamps; nanoseconds keep newest-first ordering stable.
func NowUnixNano() int64 { return time.Now().UnixNano() }

// FromUnixNano converts a stored timestamp back to UTC. Returns zero time if t<=0.
func FromUnixNano(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(0, t).UTC()
}
