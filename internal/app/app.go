package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sourcegraph/conc"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Awes0314/gcm-arena/internal/config"
	"github.com/Awes0314/gcm-arena/internal/domain/participant"
	"github.com/Awes0314/gcm-arena/internal/domain/score"
	"github.com/Awes0314/gcm-arena/internal/domain/song"
	"github.com/Awes0314/gcm-arena/internal/domain/tournament"
	"github.com/Awes0314/gcm-arena/internal/infrastructure/account/anubis"
	"github.com/Awes0314/gcm-arena/internal/infrastructure/notification"
	"github.com/Awes0314/gcm-arena/internal/infrastructure/repository/memory"
	"github.com/Awes0314/gcm-arena/internal/infrastructure/repository/postgres"
	"github.com/Awes0314/gcm-arena/internal/interfaces/httpapi"
	"github.com/Awes0314/gcm-arena/internal/platform/cache"
	idgen "github.com/Awes0314/gcm-arena/internal/platform/id"
	"github.com/Awes0314/gcm-arena/internal/platform/ratelimit"
	"github.com/Awes0314/gcm-arena/internal/platform/resilience"
	"github.com/Awes0314/gcm-arena/internal/usecase"
)

// App holds the HTTP server together with the resources it owns for the
// lifetime of the process.
type App struct {
	Server *http.Server

	logger     *slog.Logger
	db         *sqlx.DB
	dispatcher *notification.Dispatcher
}

// New wires repositories, services and the HTTP router. When DB_URL is empty
// the app runs on seeded in-memory repositories, which is the dev default.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		tournamentRepo  tournament.Repository
		participantRepo participant.Repository
		songRepo        song.Repository
		scoreRepo       score.Repository
		db              *sqlx.DB
	)

	if cfg.DBURL != "" {
		opened, err := openDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := postgres.BootstrapSeed(ctx, opened); err != nil {
			_ = opened.Close()
			return nil, fmt.Errorf("bootstrap seed: %w", err)
		}

		db = opened
		tournamentRepo = postgres.NewTournamentRepository(db)
		participantRepo = postgres.NewParticipantRepository(db)
		songRepo = postgres.NewSongRepository(db)
		scoreRepo = postgres.NewScoreRepository(db)
		logger.Info("storage ready", "backend", "postgres", "database", dbNameFromURL(cfg.DBURL))
	} else {
		memTournaments := memory.NewTournamentRepository(memory.SeedTournaments(time.Now().UTC()))
		memSongs := memory.NewSongRepository(memory.SeedSongs())
		for tournamentID, songIDs := range memory.SeedPool() {
			for _, songID := range songIDs {
				if err := memSongs.AddToPool(ctx, tournamentID, songID); err != nil {
					return nil, fmt.Errorf("seed song pool: %w", err)
				}
			}
		}

		tournamentRepo = memTournaments
		participantRepo = memory.NewParticipantRepository()
		songRepo = memSongs
		scoreRepo = memory.NewScoreRepository()
		logger.Info("storage ready", "backend", "memory")
	}

	var notifier usecase.Notifier = usecase.NopNotifier{}
	var dispatcher *notification.Dispatcher
	if cfg.NotificationEnabled {
		client := notification.NewClient(notification.ClientConfig{
			BaseURL: cfg.NotificationBaseURL,
			Token:   cfg.NotificationToken,
			Timeout: cfg.NotificationTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.NotificationCircuitEnabled,
				FailureThreshold: cfg.NotificationCircuitFailureCount,
				OpenTimeout:      cfg.NotificationCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.NotificationCircuitHalfOpenMaxReq,
			},
		}, logger)

		d, err := notification.NewDispatcher(client, cfg.NotificationWorkers, cfg.NotificationTimeout, logger)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("start notification dispatcher: %w", err)
		}
		dispatcher = d
		notifier = d
	}

	var songPoolCache *cache.Store
	if cfg.CacheEnabled {
		songPoolCache = cache.NewStore(cfg.CacheTTL)
	}

	ids := idgen.NewUUIDGenerator()

	tournamentSvc := usecase.NewTournamentService(tournamentRepo, participantRepo, songRepo, ids, songPoolCache, logger)
	submissionSvc := usecase.NewSubmissionService(tournamentRepo, participantRepo, songRepo, scoreRepo, ids, notifier, logger)
	approvalSvc := usecase.NewApprovalService(tournamentRepo, scoreRepo, notifier, logger)
	rankingSvc := usecase.NewRankingService(tournamentRepo, participantRepo, scoreRepo)

	anubisClient := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		cfg.AnubisBaseURL,
		cfg.AnubisIntrospectURL,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.AnubisCircuitEnabled,
			FailureThreshold: cfg.AnubisCircuitFailureCount,
			OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
		},
		logger,
	)

	var limiter ratelimit.Limiter = ratelimit.NopLimiter{}
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewFixedWindow(cfg.RateLimitRequests, cfg.RateLimitInterval)
	}

	handler := httpapi.NewHandler(tournamentSvc, submissionSvc, approvalSvc, rankingSvc, logger)
	router := httpapi.NewRouter(handler, anubisClient, limiter, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:     server,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
	}, nil
}

// Shutdown stops the HTTP server and drains the notification dispatcher
// concurrently, then closes the database once no request can touch it.
func (a *App) Shutdown(ctx context.Context) error {
	var serverErr error

	var wg conc.WaitGroup
	wg.Go(func() {
		serverErr = a.Server.Shutdown(ctx)
	})
	wg.Go(func() {
		if a.dispatcher != nil {
			a.dispatcher.Close()
		}
	})
	wg.Wait()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}

	return serverErr
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
