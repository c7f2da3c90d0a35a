package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"quizrush/internal/domain"
	"quizrush/internal/infra/memory"
)

const hostConn = "host-conn"

func zapNop() *zap.Logger { return zap.NewNop() }

// recorder captures every emitted event for assertions.
type recorder struct {
	mu      sync.Mutex
	entries []emitted
}

type emitted struct {
	target  string
	toConn  bool
	event   string
	payload any
}

func (r *recorder) EmitToSession(code, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, emitted{target: code, event: event, payload: payload})
}

func (r *recorder) EmitToConnection(id, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, emitted{target: id, toConn: true, event: event, payload: payload})
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.event == event {
			n++
		}
	}
	return n
}

func (r *recorder) last(event string) (emitted, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].event == event {
			return r.entries[i], true
		}
	}
	return emitted{}, false
}

func testQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Test Quiz",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Text:   "Pick the right one",
				Points: 1000,
				Answers: []domain.Answer{
					{ID: "a1", Text: "Right", Correct: true},
					{ID: "a2", Text: "Wrong", Correct: false},
					{ID: "a3", Text: "Also wrong", Correct: false},
				},
			},
			{
				ID:     "q2",
				Text:   "Pick both right ones",
				Points: 500,
				Answers: []domain.Answer{
					{ID: "a1", Text: "Right", Correct: true},
					{ID: "a2", Text: "Also right", Correct: true},
					{ID: "a3", Text: "Wrong", Correct: false},
				},
			},
		},
	}
}

func newTestRegistry(t *testing.T, settings Settings) (*Registry, *recorder) {
	t.Helper()
	rec := &recorder{}
	repo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": testQuiz(),
	}), time.Minute)
	registry := NewRegistry(repo, rec, zap.NewNop(), settings)
	t.Cleanup(registry.Close)
	return registry, rec
}

// newTestSession creates a session with a bound host and a controllable clock.
func newTestSession(t *testing.T, settings Settings) (*Registry, *Session, *recorder, *time.Duration) {
	t.Helper()
	registry, rec := newTestRegistry(t, settings)
	session, err := registry.Create(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	session.SetHost(hostConn)

	offset := new(time.Duration)
	base := time.Now()
	session.mu.Lock()
	session.clock = func() time.Time { return base.Add(*offset) }
	session.mu.Unlock()
	return registry, session, rec, offset
}

func joinPlayers(t *testing.T, s *Session, names ...string) {
	t.Helper()
	for i, name := range names {
		if _, err := s.Join(connFor(i), name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
}

func connFor(i int) string {
	return string(rune('A'+i)) + "-conn"
}

func toQuestionPhase(t *testing.T, s *Session) {
	t.Helper()
	s.StartWordCloud(hostConn)
	if s.Phase() != domain.PhaseWordCloud {
		t.Fatalf("expected wordcloud phase, got %s", s.Phase())
	}
	s.ContinueToQuestion(hostConn)
	if s.Phase() != domain.PhaseQuestion {
		t.Fatalf("expected question phase, got %s", s.Phase())
	}
}

func waitForPhase(t *testing.T, s *Session, want domain.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Phase() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %s, still %s", want, s.Phase())
}
