package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindvault/backend/internal/db"
	"github.com/mindvault/backend/internal/queue"
	mid "github.com/mindvault/backend/internal/server/middleware"
	"github.com/mindvault/backend/internal/util"
	"github.com/mindvault/backend/pkg/logger"
	pgxstore "github.com/mindvault/backend/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// rankConfigFromEnv reads the hybrid ranking tuning. Unset variables
// fall back to the built-in defaults.
func rankConfigFromEnv() pgxstore.RankConfig {
	defaults := pgxstore.DefaultRankConfig()
	return pgxstore.RankConfig{
		VectorWeight:          util.GetEnvNumeric("SEARCH_VECTOR_WEIGHT", defaults.VectorWeight),
		KeywordWeight:         util.GetEnvNumeric("SEARCH_KEYWORD_WEIGHT", defaults.KeywordWeight),
		RecencyBoost:          util.GetEnvNumeric("SEARCH_RECENCY_BOOST", defaults.RecencyBoost),
		RecencyDays:           util.GetEnvInt("SEARCH_RECENCY_DAYS", defaults.RecencyDays),
		TagBoost:              util.GetEnvNumeric("SEARCH_TAG_BOOST", defaults.TagBoost),
		TitleBoost:            util.GetEnvNumeric("SEARCH_TITLE_BOOST", defaults.TitleBoost),
		CandidateVectorLimit:  util.GetEnvInt("SEARCH_CANDIDATE_VECTOR_LIMIT", defaults.CandidateVectorLimit),
		CandidateKeywordLimit: util.GetEnvInt("SEARCH_CANDIDATE_KEYWORD_LIMIT", defaults.CandidateKeywordLimit),
		DefaultLimit:          util.GetEnvInt("SEARCH_DEFAULT_LIMIT", defaults.DefaultLimit),
		MaxLimit:              util.GetEnvInt("SEARCH_MAX_LIMIT", defaults.MaxLimit),
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := db.Migrate(databaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	storage := pgxstore.NewVaultDBStorageWithConnection(
		conn,
		pgxstore.WithRankConfig(rankConfigFromEnv()),
	)

	e.Use(mid.AppContextMiddleware(conn, ch, storage))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
