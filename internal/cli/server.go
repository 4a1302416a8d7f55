package cli

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"live-quiz-service/internal/config"
	"live-quiz-service/internal/console"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/game"
	"live-quiz-service/internal/infra/csvfile"
	"live-quiz-service/internal/infra/memory"
	pgloader "live-quiz-service/internal/infra/postgres"
	redisrepo "live-quiz-service/internal/infra/redis"
	"live-quiz-service/internal/server"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	var seconds, rounds int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, seconds, rounds)
		},
	}
	cmd.Flags().IntVar(&seconds, "seconds", 0, "seconds per round (overrides config)")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "number of rounds (overrides config, 0 = whole pool)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string, secondsFlag, roundsFlag int) error {
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
		finalPort = "8443"
	}

	questions, err := loadQuestions(ctx, cfg)
	if err != nil {
		return err
	}

	seconds := secondsFlag
	if seconds <= 0 {
		seconds = cfg.Quiz.SecondsPerRound
	}
	rounds := roundsFlag
	if rounds <= 0 {
		rounds = cfg.Quiz.Rounds
	}
	selected := selectQuestions(questions, rounds)
	log.Printf("[cli] playing %d of %d loaded questions, %ds per round", len(selected), len(questions), normalizeSeconds(seconds))

	certFile := cfg.Server.CertFile
	if certFile == "" {
		certFile = "config/server.crt"
	}
	keyFile := cfg.Server.KeyFile
	if keyFile == "" {
		keyFile = "config/server.key"
	}
	cert, err := server.LoadOrCreateCertificate(certFile, keyFile)
	if err != nil {
		return err
	}

	g := game.New(selected, game.Settings{RoundSeconds: seconds}, nil, console.NewReporter(os.Stdout))
	srv := server.New(":"+finalPort, cert, g)
	operator := console.New(g, os.Stdin, os.Stdout)

	opsPort := cfg.Ops.Port
	if opsPort == "" {
		opsPort = "8081"
	}
	opsServer := &http.Server{
		Addr:         ":" + opsPort,
		Handler:      transport.NewMux(transport.NewRankingFeed(g)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return srv.Serve(ctx) })
	group.Go(func() error { return g.Run(ctx) })
	group.Go(func() error { return operator.Run(ctx) })
	group.Go(func() error {
		log.Printf("[ops] listening on :%s", opsPort)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return opsServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("[cli] shutdown complete")
	return nil
}

// loadQuestions picks the configured source: Postgres when a URL is set,
// otherwise the local CSV file. Either way a TTL cache sits in front, backed
// by Redis when configured.
func loadQuestions(ctx context.Context, cfg config.Config) ([]domain.Question, error) {
	setID := cfg.Quiz.Set
	if setID == "" {
		setID = "general"
	}

	var loader memory.QuestionLoader
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		loader = pgloader.NewQuestionLoader(pool)
	} else {
		file := cfg.Quiz.File
		if file == "" {
			file = "data/preguntas.csv"
		}
		loader = csvfile.New(file)
	}

	ttl := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var set domain.QuestionSet
	var err error
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		set, err = redisrepo.NewQuestionRepository(client, loader, ttl).GetQuestionSet(ctx, setID)
	} else {
		set, err = memory.NewQuestionRepository(loader, ttl).GetQuestionSet(ctx, setID)
	}
	if err != nil {
		return nil, err
	}
	return set.Questions, nil
}

// selectQuestions shuffles the pool once and keeps the configured count. A
// count of zero or one past the pool size plays the whole pool.
func selectQuestions(pool []domain.Question, rounds int) []domain.Question {
	selected := make([]domain.Question, len(pool))
	copy(selected, pool)
	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if rounds > 0 && rounds < len(selected) {
		selected = selected[:rounds]
	}
	return selected
}

func normalizeSeconds(seconds int) int {
	if seconds <= 0 {
		return 30
	}
	return seconds
}
