package extractor

import "time"

// appleEpoch is 2001-01-01T00:00:00Z, the reference instant for Apple's
// Core Data timestamp representation. See spec.md §3.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// secondsVsNanosThreshold is the magnitude boundary used to distinguish a
// raw Apple timestamp expressed in seconds from one expressed in
// nanoseconds. Inclusive of the lower (seconds) regime, per spec.md §8.
const secondsVsNanosThreshold = 1e11

// AppleTimestampToUTC deterministically converts a raw Apple Core Data
// timestamp (seconds or nanoseconds since 2001-01-01T00:00:00Z) to a UTC
// instant, detecting the unit by magnitude.
func AppleTimestampToUTC(raw int64) time.Time {
	abs := raw
	if abs < 0 {
		abs = -abs
	}
	// Inclusive of the lower regime: exactly the threshold is seconds.
	if float64(abs) > secondsVsNanosThreshold {
		return appleEpoch.Add(time.Duration(raw) * time.Nanosecond)
	}
	return time.Unix(appleEpoch.Unix()+raw, 0).UTC()
}
