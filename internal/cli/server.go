package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizrush/internal/auth"
	"quizrush/internal/config"
	"quizrush/internal/domain"
	"quizrush/internal/game"
	"quizrush/internal/infra/memory"
	pgloader "quizrush/internal/infra/postgres"
	redisrepo "quizrush/internal/infra/redis"
	transport "quizrush/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo game.QuizRepository
	if redisClient != nil {
		quizRepo = redisrepo.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	settings := game.Settings{
		TimeLimit:       config.TTLDuration(cfg.Game.TimeLimit, 20*time.Second),
		HostGracePeriod: config.TTLDuration(cfg.Game.HostGracePeriod, 45*time.Second),
		WordLimit:       cfg.Game.WordLimit,
		Denylist:        cfg.Game.Denylist,
	}

	hub := transport.NewHub(logger)
	registry := game.NewRegistry(quizRepo, hub, logger, settings)
	defer registry.Close()
	service := game.NewService(registry, hub, logger)

	tokens := auth.NewService(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour))
	wsHandler := transport.NewWSHandler(service, hub, logger)
	authHandler := transport.NewAuthHandler(tokens, cfg.Auth.AdminPassword, logger)
	exportHandler := transport.NewExportHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("POST /api/login", authHandler.ServeLogin)
	mux.HandleFunc("GET /api/sessions/{code}/export", transport.RequireHost(tokens, exportHandler.ServeExport))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quizrush server", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides demo quiz content; the Postgres loader replaces
// this when a database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Safety Basics",
			Questions: []domain.Question{
				{
					ID:        "q1",
					Text:      "Which greetings are okay if you prefer no close contact?",
					Hint:      "Your comfort comes first",
					TimeLimit: 20,
					Points:    1000,
					Answers: []domain.Answer{
						{ID: "a1", Text: "A handshake", Correct: true},
						{ID: "a2", Text: "A fist bump", Correct: true},
						{ID: "a3", Text: "A hug you didn't ask for", Correct: false},
						{ID: "a4", Text: "A simple hello", Correct: true},
					},
				},
				{
					ID:               "q2",
					Text:             "Who can you talk to if something feels wrong?",
					Hint:             "You are never alone",
					ExplanationPart1: "Any trusted adult can help",
					TimeLimit:        20,
					Points:           1000,
					Answers: []domain.Answer{
						{ID: "a1", Text: "A trusted adult", Correct: true},
						{ID: "a2", Text: "Nobody", Correct: false},
					},
				},
			},
		},
	}
}
