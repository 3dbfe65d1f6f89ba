// Package fsrs keeps a simplified FSRS memory model per note, fed by
// flashcard quiz answers.
package fsrs

import (
	"math"
	"time"
)

// Rating is the user's response to a card review.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

const (
	maxDifficulty = 10
	day           = 24 * time.Hour
)

// Params holds the parameters for the FSRS algorithm.
type Params struct {
	A                float64 // scales the overall memory increase
	B                float64 // difficulty exponent
	C                float64 // stability exponent
	D                float64 // retention effect scaler
	DesiredRetention float64 // recall probability a due note is expected to have
}

func DefaultParams() *Params {
	return &Params{
		A:                0.2,
		B:                0.5,
		C:                0.1,
		D:                4.0,
		DesiredRetention: 0.9,
	}
}

// RatingFor maps a quiz outcome to a rating. A typed-in answer is either
// recalled or not, so only Good and Again are produced.
func RatingFor(correct bool) Rating {
	if correct {
		return Good
	}
	return Again
}

// CardState holds the memory state of a note. A zero LastReview means the
// note has never been reviewed.
type CardState struct {
	Stability  float64
	Difficulty float64
	LastReview time.Time
}

// Retrievability estimates the probability of recalling a note elapsed
// after its last review. It falls to DesiredRetention once stability days
// have passed.
func (p *Params) Retrievability(stability float64, elapsed time.Duration) float64 {
	if stability <= 0 {
		return p.DesiredRetention
	}
	if elapsed <= 0 {
		return 1
	}
	return math.Pow(p.DesiredRetention, elapsed.Hours()/24/stability)
}

// NextState returns the memory state after a review rated rating at now.
func (p *Params) NextState(cur CardState, rating Rating, now time.Time) CardState {
	next := CardState{LastReview: now}
	switch rating {
	case Again:
		next.Stability = 1
		next.Difficulty = clampDifficulty(cur.Difficulty + 0.5)
		return next
	case Hard:
		next.Difficulty = clampDifficulty(cur.Difficulty + 0.1)
	case Easy:
		next.Difficulty = clampDifficulty(cur.Difficulty - 0.1)
	default:
		next.Difficulty = cur.Difficulty
	}

	r := p.DesiredRetention
	if !cur.LastReview.IsZero() {
		r = p.Retrievability(cur.Stability, now.Sub(cur.LastReview))
	}
	next.Stability = p.recallStability(cur.Stability, cur.Difficulty, r)
	return next
}

func clampDifficulty(d float64) float64 {
	return math.Max(0, math.Min(maxDifficulty, d))
}

// recallStability is the stability after a successful recall at
// retrievability r: S' = S * (1 + a * D^(-b) * S^c * (e^(d * (1-R)) - 1)).
// S and D are floored at 1 so the powers stay finite.
func (p *Params) recallStability(stability, difficulty, r float64) float64 {
	s := math.Max(1, stability)
	d := math.Max(1, difficulty)

	growth := p.A * math.Pow(d, -p.B) * math.Pow(s, p.C) * (math.Exp(p.D*(1-r)) - 1)
	return s * (1 + growth)
}

// NextDueDate schedules the next review newStability days (rounded) after now.
func NextDueDate(newStability float64, now time.Time) time.Time {
	return now.Add(time.Duration(math.Round(newStability)) * day)
}

// Review applies a quiz answer and returns the new state with its due date.
func (p *Params) Review(current CardState, correct bool, now time.Time) (CardState, time.Time) {
	next := p.NextState(current, RatingFor(correct), now)
	return next, NextDueDate(next.Stability, now)
}
