package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned for a stale or unknown session code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrGameAlreadyStarted rejects joins with an unrecognized nickname once
	// the match has advanced past the word cloud.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrCodeExhausted is returned when a unique session code could not be generated.
	ErrCodeExhausted = errors.New("failed to generate unique session code")
	// ErrResultsNotReady is returned when final results are requested before the match ended.
	ErrResultsNotReady = errors.New("results not available")
)
