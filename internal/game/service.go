package game

import (
	"context"

	"go.uber.org/zap"

	"quizrush/internal/domain"
)

// Service contains the engine use cases. Every inbound event handler fully
// contains its own failures: rejections go to the originating connection
// only and never leave a session inconsistent.
type Service struct {
	registry  *Registry
	broadcast Broadcaster
	logger    *zap.Logger
}

func NewService(registry *Registry, broadcast Broadcaster, logger *zap.Logger) *Service {
	return &Service{registry: registry, broadcast: broadcast, logger: logger}
}

// Registry exposes lifecycle lookups to collaborators (export handler).
func (s *Service) Registry() *Registry {
	return s.registry
}

// CreateSession creates or re-opens the live session for a quiz and binds
// the connection as host. The identifier may be a session code (host page
// refresh) or a quiz id. Returns the session code for room membership.
func (s *Service) CreateSession(ctx context.Context, connID, identifier string) (string, error) {
	if session, ok := s.registry.GetByCode(identifier); ok {
		return s.rebindHost(session, connID), nil
	}
	if session, ok := s.registry.GetActiveByQuiz(identifier); ok {
		return s.rebindHost(session, connID), nil
	}

	session, err := s.registry.Create(ctx, identifier)
	if err != nil {
		s.emitError(connID, err)
		return "", err
	}
	session.SetHost(connID)
	s.broadcast.EmitToConnection(connID, EventSessionCreated, session.View(false, false))
	session.CatchUp(connID)
	return session.Code(), nil
}

func (s *Service) rebindHost(session *Session, connID string) string {
	session.SetHost(connID)
	s.broadcast.EmitToConnection(connID, EventSessionCreated, session.View(true, false))
	session.CatchUp(connID)
	return session.Code()
}

// RestartSession destroys any live session for the quiz and starts a fresh
// one with the caller as host.
func (s *Service) RestartSession(ctx context.Context, connID, identifier string) (string, error) {
	quizID := identifier
	if session, ok := s.registry.GetByCode(identifier); ok {
		quizID = session.QuizID()
	}
	if existing, ok := s.registry.GetActiveByQuiz(quizID); ok {
		s.broadcast.EmitToSession(existing.Code(), EventError, ErrorPayload{Message: "session restarted by host"})
		s.registry.Remove(existing.Code())
	}

	session, err := s.registry.Create(ctx, quizID)
	if err != nil {
		s.emitError(connID, err)
		return "", err
	}
	session.SetHost(connID)
	s.broadcast.EmitToConnection(connID, EventSessionCreated, session.View(false, true))
	session.CatchUp(connID)
	return session.Code(), nil
}

// Join adds or reconnects a player in a session.
func (s *Service) Join(connID, code, nickname string) (*domain.Player, error) {
	session, ok := s.registry.GetByCode(code)
	if !ok {
		s.emitError(connID, domain.ErrSessionNotFound)
		return nil, domain.ErrSessionNotFound
	}
	player, err := session.Join(connID, nickname)
	if err != nil {
		s.emitError(connID, err)
		return nil, err
	}
	return player, nil
}

// Start triggers lobby -> wordcloud. Unknown codes are silent no-ops,
// matching idempotent client retry behavior.
func (s *Service) Start(connID, code string) {
	if session, ok := s.registry.GetByCode(code); ok {
		session.StartWordCloud(connID)
	}
}

// Continue triggers wordcloud -> question.
func (s *Service) Continue(connID, code string) {
	if session, ok := s.registry.GetByCode(code); ok {
		session.ContinueToQuestion(connID)
	}
}

// SubmitWord forwards a word-cloud submission.
func (s *Service) SubmitWord(connID, code, word string) {
	session, ok := s.registry.GetByCode(code)
	if !ok {
		s.broadcast.EmitToConnection(connID, EventWordAck, WordResult{OK: false, Reason: domain.WordRejectInvalid})
		return
	}
	session.SubmitWord(connID, word)
}

// SubmitAnswer forwards an answer submission, guarded by questionId inside
// the session.
func (s *Service) SubmitAnswer(connID, code, questionID string, answerIDs []string) {
	if session, ok := s.registry.GetByCode(code); ok {
		session.SubmitAnswer(connID, questionID, answerIDs)
	}
}

// Advance forwards the host pacing control.
func (s *Service) Advance(connID, code string) {
	if session, ok := s.registry.GetByCode(code); ok {
		session.Advance(connID)
	}
}

// Disconnect notifies the session owning this connection, if any.
func (s *Service) Disconnect(connID string) {
	for _, session := range s.registry.Sessions() {
		if session.Disconnect(connID) {
			return
		}
	}
}

// Export returns the final stats record for the report collaborator.
func (s *Service) Export(code string) (domain.FinalResults, error) {
	session, ok := s.registry.GetByCode(code)
	if !ok {
		return domain.FinalResults{}, domain.ErrSessionNotFound
	}
	return session.FinalResults()
}

func (s *Service) emitError(connID string, err error) {
	s.broadcast.EmitToConnection(connID, EventError, ErrorPayload{Message: err.Error()})
}
