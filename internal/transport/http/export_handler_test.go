package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"quizrush/internal/auth"
	"quizrush/internal/game"
	"quizrush/internal/infra/memory"
)

func newFinishedMatch(t *testing.T) (*game.Service, string) {
	t.Helper()
	logger := zap.NewNop()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	hub := NewHub(logger)
	registry := game.NewRegistry(quizRepo, hub, logger, game.Settings{
		TimeLimit:       20 * time.Second,
		HostGracePeriod: time.Minute,
	})
	t.Cleanup(registry.Close)
	service := game.NewService(registry, hub, logger)

	code, err := service.CreateSession(context.Background(), "host-1", "quiz-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := service.Join("conn-1", code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	service.Start("host-1", code)
	service.Continue("host-1", code)
	service.SubmitAnswer("conn-1", code, "q1", []string{"a2"})
	service.Advance("host-1", code) // explanation -> results
	service.Advance("host-1", code) // results -> final
	return service, code
}

func TestExportServesCSV(t *testing.T) {
	service, code := newFinishedMatch(t)
	tokens := auth.NewService("test-secret", time.Hour)
	handler := NewExportHandler(service, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions/{code}/export", RequireHost(tokens, handler.ServeExport))
	server := httptest.NewServer(mux)
	defer server.Close()

	token, err := tokens.Issue(auth.RoleHost)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/sessions/"+code+"/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	body := readBody(t, resp)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", body)
	}
	if lines[0] != "nickname,score,accuracy,avgResponseTime" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Alice,") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestExportRequiresToken(t *testing.T) {
	service, code := newFinishedMatch(t)
	tokens := auth.NewService("test-secret", time.Hour)
	handler := NewExportHandler(service, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions/{code}/export", RequireHost(tokens, handler.ServeExport))
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/sessions/" + code + "/export")
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestExportUnfinishedSessionNotFound(t *testing.T) {
	logger := zap.NewNop()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	hub := NewHub(logger)
	registry := game.NewRegistry(quizRepo, hub, logger, game.Settings{HostGracePeriod: time.Minute})
	t.Cleanup(registry.Close)
	service := game.NewService(registry, hub, logger)

	code, err := service.CreateSession(context.Background(), "host-1", "quiz-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	tokens := auth.NewService("test-secret", time.Hour)
	handler := NewExportHandler(service, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions/{code}/export", RequireHost(tokens, handler.ServeExport))
	server := httptest.NewServer(mux)
	defer server.Close()

	token, _ := tokens.Issue(auth.RoleHost)
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/sessions/"+code+"/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unfinished session, got %d", resp.StatusCode)
	}
}

func TestLoginExchangesPassword(t *testing.T) {
	tokens := auth.NewService("test-secret", time.Hour)
	handler := NewAuthHandler(tokens, "hunter2", zap.NewNop())

	server := httptest.NewServer(http.HandlerFunc(handler.ServeLogin))
	defer server.Close()

	resp, err := http.Post(server.URL, "application/json", strings.NewReader(`{"password":"hunter2"}`))
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(readBody(t, resp), `"token"`) {
		t.Fatalf("expected token in response")
	}

	bad, err := http.Post(server.URL, "application/json", strings.NewReader(`{"password":"wrong"}`))
	if err != nil {
		t.Fatalf("post login: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", bad.StatusCode)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}
