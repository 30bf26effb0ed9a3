package service

import "math"

const (
	baseScore     = 1000
	maxSpeedBonus = 500
)

// Score computes the points for a quiz response: a correct answer earns the
// base plus a linear speed bonus relative to the question's time limit.
// Incorrect answers and non-quiz responses earn nothing. Questions without a
// time limit pay the base only.
func Score(correct bool, responseTimeMs, timeLimitMs int) int {
	if !correct {
		return 0
	}
	if timeLimitMs <= 0 {
		return baseScore
	}
	remaining := 1 - float64(responseTimeMs)/float64(timeLimitMs)
	if remaining < 0 {
		remaining = 0
	}
	return baseScore + int(math.Round(remaining*maxSpeedBonus))
}
