package game

import (
	"context"
	"crypto/rand"
	"sync"

	"go.uber.org/zap"

	"quizrush/internal/domain"
)

// QuizRepository loads immutable quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

const (
	codeLength = 6
	// codeAlphabet omits ambiguous characters (0/O, 1/I/L).
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Registry is the process-wide root of live session state. Codes are unique
// among currently-live sessions only; a destroyed session frees its code.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	quizzes   QuizRepository
	broadcast Broadcaster
	logger    *zap.Logger
	settings  Settings
}

func NewRegistry(quizzes QuizRepository, broadcast Broadcaster, logger *zap.Logger, settings Settings) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		quizzes:   quizzes,
		broadcast: broadcast,
		logger:    logger,
		settings:  settings,
	}
}

// Create fetches the quiz snapshot and registers a new session under a fresh
// code. Returns domain.ErrQuizNotFound when the quiz does not exist.
func (r *Registry) Create(ctx context.Context, quizID string) (*Session, error) {
	quiz, err := r.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.generateCodeLocked()
	if err != nil {
		return nil, err
	}
	session := newSession(code, quiz, r.broadcast, r.logger, r.settings, r.Remove)
	r.sessions[code] = session
	r.logger.Info("session created", zap.String("code", code), zap.String("quizId", quizID))
	return session, nil
}

// GetByCode looks up a live session.
func (r *Registry) GetByCode(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[code]
	return session, ok
}

// GetActiveByQuiz returns the live session for a quiz, if any. Callers use
// this to re-open an already-running match instead of starting a second one.
func (r *Registry) GetActiveByQuiz(quizID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, session := range r.sessions {
		if session.QuizID() == quizID {
			return session, true
		}
	}
	return nil, false
}

// Sessions returns a snapshot of all live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session)
	}
	return out
}

// Remove destroys a session and cancels any pending deadline.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[code]; ok {
		session.Close()
		delete(r.sessions, code)
		r.logger.Info("session removed", zap.String("code", code))
	}
}

// Close tears down all live sessions.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, session := range r.sessions {
		session.Close()
		delete(r.sessions, code)
	}
}

func (r *Registry) generateCodeLocked() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		code := randomCode()
		if _, exists := r.sessions[code]; !exists {
			return code, nil
		}
	}
	return "", domain.ErrCodeExhausted
}

func randomCode() string {
	b := make([]byte, codeLength)
	rand.Read(b)
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(code)
}
