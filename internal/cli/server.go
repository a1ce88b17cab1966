package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/heywon01/math-quiz/internal/app"
	"github.com/heywon01/math-quiz/internal/config"
	"github.com/heywon01/math-quiz/internal/infra/memory"
	"github.com/heywon01/math-quiz/internal/infra/postgres"
	redisinfra "github.com/heywon01/math-quiz/internal/infra/redis"
	"github.com/heywon01/math-quiz/internal/infra/sqlite"
	transport "github.com/heywon01/math-quiz/internal/transport/http"
	"github.com/heywon01/math-quiz/web"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	// Storage backend: Postgres when configured, then SQLite, else in-memory.
	var (
		userRepo app.UserRepository
		quizRepo app.QuizRepository
	)
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		store := postgres.NewStore(pool)
		userRepo, quizRepo = store, store
		log.Printf("using postgres storage")
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		userRepo, quizRepo = store, store
		log.Printf("using sqlite storage at %s", cfg.SQLite.Path)
	default:
		store := memory.NewStore()
		userRepo, quizRepo = store, store
		log.Printf("using in-memory storage; state is lost on restart")
	}

	leaderboardTTL := config.TTLDuration(cfg.Leaderboard.TTL, 30*time.Second)
	sessionTTL := config.TTLDuration(cfg.Admin.SessionTTL, 30*time.Minute)

	var (
		leaderboard app.LeaderboardCache
		sessions    app.AdminSessionStore
	)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		leaderboard = redisinfra.NewLeaderboardCache(redisClient, userRepo, leaderboardTTL)
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		leaderboard = memory.NewLeaderboardCache(userRepo, leaderboardTTL)
		sessions = memory.NewSessionStore(sessionTTL)
	}

	hub := app.NewLeaderboardHub()
	admin := app.AdminBootstrap{
		Name:     cfg.Admin.Name,
		UserID:   cfg.Admin.ID,
		Password: cfg.Admin.Password,
	}
	userService := app.NewUserService(userRepo, leaderboard, sessions, admin, sessionTTL)
	quizService := app.NewQuizService(quizRepo, userRepo, leaderboard, hub)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return err
	}

	handler := transport.NewHandler(userService, quizService, hub, staticFS)
	mux := http.NewServeMux()
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting math quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
