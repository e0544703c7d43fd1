package lrc

import "fmt"

// Time is the timestamp of a lyric line. The zero value is Untimed.
type Time struct {
	ms  int64
	set bool
}

// Untimed marks a line that is present in the file but has no time tag.
var Untimed = Time{}

// At returns a timestamp of ms milliseconds.
func At(ms int64) Time {
	return Time{ms: ms, set: true}
}

// IsSet reports whether t carries a timestamp.
func (t Time) IsSet() bool {
	return t.set
}

// Millis returns the timestamp in milliseconds and whether it is set.
func (t Time) Millis() (int64, bool) {
	return t.ms, t.set
}

// NotAfter reports whether t is a timestamp at or before position (ms).
// Untimed is never at or before any position.
func (t Time) NotAfter(position int64) bool {
	return t.set && t.ms <= position
}

// String returns the clock label of t, or "" when untimed.
func (t Time) String() string {
	if !t.set {
		return ""
	}
	return FormatClock(t.ms)
}

func splitClock(ms int64) (min, sec, cent int64) {
	if ms < 0 {
		ms = 0
	}
	totalSec := ms / 1000
	return totalSec / 60, totalSec % 60, (ms % 1000) / 10
}

// FormatClock formats ms as MM:SS.cc. Negative input is treated as 0 and
// precision below 10ms is dropped.
func FormatClock(ms int64) string {
	min, sec, cent := splitClock(ms)
	return fmt.Sprintf("%02d:%02d.%02d", min, sec, cent)
}

// FormatTag formats ms as an LRC time tag, [MM:SS.cc].
func FormatTag(ms int64) string {
	return "[" + FormatClock(ms) + "]"
}
