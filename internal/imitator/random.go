package imitator

import "math/rand/v2"

// Random draws the jitter for pledges, timers and pool selection.
type Random interface {
	// Between returns a uniform integer in [min, max].
	Between(min int, max int) int
}

type mathRandom struct{}

func NewRandom() Random {
	return mathRandom{}
}

func (mathRandom) Between(min int, max int) int {
	return min + rand.IntN(max-min+1)
}
