package fsrs

import (
	"math"
	"testing"
	"time"
)

var reviewTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRecallStability(t *testing.T) {
	params := DefaultParams()

	testCases := []struct {
		name      string
		stability float64
		r         float64
		expected  float64
	}{
		// 10 * (1 + 0.2 * 5^-0.5 * 10^0.1 * (e^0.4 - 1))
		{"due note", 10, 0.9, 10.55},
		{"reviewed early", 10, math.Pow(0.9, 0.1), 10.05},
		{"overdue note", 10, math.Pow(0.9, 3), 12.20},
		{"reviewed at once", 10, 1, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := params.recallStability(tc.stability, 5, tc.r)
			if math.Abs(got-tc.expected) > 0.01 {
				t.Errorf("Expected stability around %.2f, got %.4f", tc.expected, got)
			}
		})
	}
}

func TestRetrievability(t *testing.T) {
	params := DefaultParams()

	if r := params.Retrievability(10, 10*day); math.Abs(r-0.9) > 1e-9 {
		t.Errorf("Expected retention 0.9 after stability days, got %.4f", r)
	}
	if r := params.Retrievability(10, 0); r != 1 {
		t.Errorf("Expected full recall right after a review, got %.4f", r)
	}
	if r := params.Retrievability(0, day); r != 0.9 {
		t.Errorf("Expected desired retention for an unreviewed note, got %.4f", r)
	}
}

func TestNextState(t *testing.T) {
	params := DefaultParams()
	initialState := CardState{
		Stability:  10,
		Difficulty: 5,
		LastReview: reviewTime.Add(-10 * day),
	}

	t.Run("Again rating", func(t *testing.T) {
		newState := params.NextState(initialState, Again, reviewTime)
		if newState.Stability != 1 {
			t.Errorf("Expected stability to reset to 1, got %.2f", newState.Stability)
		}
		if newState.Difficulty != 5.5 {
			t.Errorf("Expected difficulty to increase to 5.5, got %.2f", newState.Difficulty)
		}
		if !newState.LastReview.Equal(reviewTime) {
			t.Errorf("Expected last review %v, got %v", reviewTime, newState.LastReview)
		}
	})

	t.Run("Good rating", func(t *testing.T) {
		newState := params.NextState(initialState, Good, reviewTime)
		if math.Abs(newState.Stability-10.55) > 0.01 {
			t.Errorf("Expected stability around 10.55, got %.2f", newState.Stability)
		}
		if newState.Difficulty != 5 {
			t.Errorf("Expected difficulty to stay 5, got %.2f", newState.Difficulty)
		}
	})

	t.Run("Hard and Easy ratings", func(t *testing.T) {
		if d := params.NextState(initialState, Hard, reviewTime).Difficulty; math.Abs(d-5.1) > 1e-9 {
			t.Errorf("Expected Hard to raise difficulty to 5.1, got %.2f", d)
		}
		if d := params.NextState(initialState, Easy, reviewTime).Difficulty; math.Abs(d-4.9) > 1e-9 {
			t.Errorf("Expected Easy to lower difficulty to 4.9, got %.2f", d)
		}
	})

	t.Run("Difficulty is capped", func(t *testing.T) {
		newState := params.NextState(CardState{Stability: 3, Difficulty: 9.8}, Again, reviewTime)
		if newState.Difficulty != maxDifficulty {
			t.Errorf("Expected difficulty capped at 10, got %.2f", newState.Difficulty)
		}
	})

	t.Run("Repeat within a session barely helps", func(t *testing.T) {
		first := params.NextState(CardState{}, Good, reviewTime)
		again := params.NextState(first, Good, reviewTime.Add(time.Minute))
		if again.Stability-first.Stability > 0.001 {
			t.Errorf("Expected almost no gain from an immediate repeat, got %.4f -> %.4f", first.Stability, again.Stability)
		}
	})
}

func TestNextDueDate(t *testing.T) {
	if got, want := NextDueDate(5.4, reviewTime), reviewTime.Add(5*day); !got.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, got)
	}
	if got, want := NextDueDate(5.6, reviewTime), reviewTime.Add(6*day); !got.Equal(want) {
		t.Errorf("Expected due date %v, got %v", want, got)
	}
}

func TestReview(t *testing.T) {
	params := DefaultParams()

	state, due := params.Review(CardState{}, false, reviewTime)
	if state.Stability != 1 {
		t.Errorf("Expected a wrong answer to reset stability to 1, got %.2f", state.Stability)
	}
	if !due.Equal(reviewTime.Add(day)) {
		t.Errorf("Expected due in one day, got %v", due)
	}

	state, _ = params.Review(CardState{}, true, reviewTime)
	if math.Abs(state.Stability-1.098) > 0.001 {
		t.Errorf("Expected first recall stability around 1.098, got %.4f", state.Stability)
	}
}
