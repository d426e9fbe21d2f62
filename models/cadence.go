// ABOUTME: Follow-up cadence calculations for outbound touch series
// ABOUTME: Maps the touch just sent onto the delay before the next touch
package models

import "time"

// DefaultCadenceDays are the gaps after touch 1, 2, 3, 4. The last entry is
// reused for any later touch.
var DefaultCadenceDays = []int{3, 4, 4, 7}

// DefaultMaxTouches caps a follow-up series.
const DefaultMaxTouches = 5

// FollowUpDelay returns the wait after sending touchNumber.
func FollowUpDelay(touchNumber int, cadenceDays []int) time.Duration {
	if len(cadenceDays) == 0 {
		cadenceDays = DefaultCadenceDays
	}
	idx := touchNumber - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(cadenceDays) {
		idx = len(cadenceDays) - 1
	}
	return time.Duration(cadenceDays[idx]) * 24 * time.Hour
}

// CumulativeOffsets returns the day offset of each touch in a full series.
func CumulativeOffsets(maxTouches int, cadenceDays []int) []int {
	offsets := make([]int, 0, maxTouches)
	day := 0
	for touch := 1; touch <= maxTouches; touch++ {
		offsets = append(offsets, day)
		day += int(FollowUpDelay(touch, cadenceDays) / (24 * time.Hour))
	}
	return offsets
}
