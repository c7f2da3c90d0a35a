package game

import (
	"math"
	"time"

	"quizrush/internal/domain"
)

const (
	defaultPoints    = 1000
	defaultTimeLimit = 20 * time.Second
)

// filterSelection de-duplicates the submitted answer ids and drops ids that
// do not belong to the question, preserving submission order.
func filterSelection(q domain.Question, answerIDs []string) []string {
	valid := make(map[string]bool, len(q.Answers))
	for _, a := range q.Answers {
		valid[a.ID] = true
	}

	seen := make(map[string]bool, len(answerIDs))
	var selected []string
	for _, id := range answerIDs {
		if seen[id] || !valid[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}
	return selected
}

// isExactMatch reports whether the filtered selection equals the question's
// correct set exactly. Partial, over-inclusive, and empty selections are all
// incorrect.
func isExactMatch(q domain.Question, selected []string) bool {
	correct := q.CorrectAnswerIDs()
	if len(selected) == 0 || len(selected) != len(correct) {
		return false
	}
	correctSet := make(map[string]bool, len(correct))
	for _, id := range correct {
		correctSet[id] = true
	}
	for _, id := range selected {
		if !correctSet[id] {
			return false
		}
	}
	return true
}

// scoreAnswer computes the awarded score for a correct answer:
// points * (1 + 0.5 * remaining/timeLimit), rounded to the nearest integer.
// Negative remaining time contributes no bonus. Incorrect answers score 0.
func scoreAnswer(q domain.Question, correct bool, elapsed, timeLimit time.Duration) int {
	if !correct {
		return 0
	}
	points := q.Points
	if points == 0 {
		points = defaultPoints
	}
	remaining := timeLimit - elapsed
	if remaining < 0 {
		remaining = 0
	}
	bonus := 0.5 * remaining.Seconds() / timeLimit.Seconds()
	return int(math.Round(float64(points) * (1 + bonus)))
}

// questionTimeLimit resolves the active deadline window for a question.
func questionTimeLimit(q domain.Question, fallback time.Duration) time.Duration {
	if q.TimeLimit > 0 {
		return time.Duration(q.TimeLimit) * time.Second
	}
	if fallback > 0 {
		return fallback
	}
	return defaultTimeLimit
}
