package game

import (
	"testing"
	"time"

	"quizrush/internal/domain"
)

func scoringQuestion() domain.Question {
	return domain.Question{
		ID:     "q1",
		Points: 1000,
		Answers: []domain.Answer{
			{ID: "a", Correct: true},
			{ID: "b", Correct: false},
			{ID: "c", Correct: true},
		},
	}
}

func TestFilterSelectionDropsInvalidAndDuplicates(t *testing.T) {
	q := scoringQuestion()
	got := filterSelection(q, []string{"a", "a", "zzz", "b", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestExactMatchRule(t *testing.T) {
	q := scoringQuestion()
	cases := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"exact set", []string{"a", "c"}, true},
		{"order independent", []string{"c", "a"}, true},
		{"partial", []string{"a"}, false},
		{"over-inclusive", []string{"a", "b", "c"}, false},
		{"empty", nil, false},
		{"wrong member", []string{"a", "b"}, false},
	}
	for _, tc := range cases {
		if got := isExactMatch(q, tc.selected); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestScoreFormula(t *testing.T) {
	q := scoringQuestion()
	limit := 20 * time.Second

	if got := scoreAnswer(q, true, 0, limit); got != 1500 {
		t.Fatalf("instant answer: expected 1500, got %d", got)
	}
	if got := scoreAnswer(q, true, limit, limit); got != 1000 {
		t.Fatalf("deadline answer: expected 1000, got %d", got)
	}
	if got := scoreAnswer(q, true, 10*time.Second, limit); got != 1250 {
		t.Fatalf("halfway answer: expected 1250, got %d", got)
	}
	// A late firing never subtracts points.
	if got := scoreAnswer(q, true, 25*time.Second, limit); got != 1000 {
		t.Fatalf("late answer: expected 1000, got %d", got)
	}
	if got := scoreAnswer(q, false, 0, limit); got != 0 {
		t.Fatalf("incorrect answer: expected 0, got %d", got)
	}
}

func TestQuestionTimeLimitFallbacks(t *testing.T) {
	if got := questionTimeLimit(domain.Question{TimeLimit: 30}, 20*time.Second); got != 30*time.Second {
		t.Fatalf("expected question's own limit, got %v", got)
	}
	if got := questionTimeLimit(domain.Question{}, 15*time.Second); got != 15*time.Second {
		t.Fatalf("expected configured fallback, got %v", got)
	}
	if got := questionTimeLimit(domain.Question{}, 0); got != defaultTimeLimit {
		t.Fatalf("expected built-in default, got %v", got)
	}
}
