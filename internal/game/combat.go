package game

import "math"

// levelScale grows ability output by 10% per level past the first.
func levelScale(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 1 + 0.1*float64(level-1)
}

// damageAmount computes the final damage of an offensive ability.
// Variance is already bounded by the caller; the result never drops
// below 1 so a connected hit always registers.
func damageAmount(power int, classModifier float64, level int, echoMultiplier, variance float64) int {
	raw := float64(power) * classModifier * levelScale(level) * echoMultiplier * variance
	amount := int(math.Floor(raw))
	if amount < 1 {
		amount = 1
	}
	return amount
}

// healAmount computes the final healing of a restorative ability.
// Clamping against max health happens where the heal is applied.
func healAmount(power int, classModifier float64, level int, echoMultiplier float64) int {
	raw := float64(power) * classModifier * levelScale(level) * echoMultiplier
	amount := int(math.Floor(raw))
	if amount < 1 {
		amount = 1
	}
	return amount
}
