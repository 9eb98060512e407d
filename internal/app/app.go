package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/osu-tournament-rating/external/osuapi"
	"github.com/riskibarqy/osu-tournament-rating/external/osutrack"
	"github.com/riskibarqy/osu-tournament-rating/internal/config"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/duplicate"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/player"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/rating"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/tournament"
	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	"github.com/riskibarqy/osu-tournament-rating/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/osu-tournament-rating/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/osu-tournament-rating/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/osu-tournament-rating/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/osu-tournament-rating/internal/interfaces/httpapi"
	"github.com/riskibarqy/osu-tournament-rating/internal/observability"
	basecache "github.com/riskibarqy/osu-tournament-rating/internal/platform/cache"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/id"
	"github.com/riskibarqy/osu-tournament-rating/internal/platform/logging"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
	"github.com/riskibarqy/osu-tournament-rating/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// App owns the HTTP server, the background loops and the resources they share.
type App struct {
	cfg     config.Config
	logger  *logging.Logger
	server  *http.Server
	loops   []worker.Loop
	closers []func(context.Context) error
}

type repositories struct {
	matches     match.Repository
	tournaments tournament.Repository
	duplicates  duplicate.Repository
	players     player.Repository
	ratings     rating.Repository
	users       user.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}
	clock := clockwork.NewRealClock()

	repos, err := a.openRepositories(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL, clock)
		repos.players = cache.NewPlayerRepository(repos.players, store)
		repos.users = cache.NewUserRepository(repos.users, store)
	}

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	matchService := usecase.NewMatchService(
		repos.matches,
		repos.tournaments,
		repos.duplicates,
		repos.players,
		repos.users,
		usecase.WithMatchMetrics(metrics),
		usecase.WithMatchLogger(logger),
	)
	playerService := usecase.NewPlayerService(repos.players, repos.ratings, repos.users)
	ratingService := usecase.NewRatingService(repos.ratings, repos.players)
	userService := usecase.NewUserService(repos.users, repos.players, repos.ratings, matchService)

	routerCfg := httpapi.RouterConfig{
		Handler:            httpapi.NewHandler(matchService, playerService, ratingService, userService, logger),
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestIDs:         id.NewHexGenerator(16),
	}
	if cfg.MetricsEnabled {
		routerCfg.Metrics = metrics.Handler()
	}
	if cfg.JWTKey != "" {
		verifier, err := jwtauth.NewVerifier(jwtauth.Config{
			Key:      cfg.JWTKey,
			Issuer:   cfg.JWTIssuer,
			CacheTTL: cfg.JWTCacheTTL,
			Clock:    clock,
			Logger:   logger,
		})
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("build token verifier: %w", err)
		}
		routerCfg.Verifier = verifier
	} else {
		logger.Warn("JWT_KEY is empty, authenticated routes will reject every request")
	}

	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(routerCfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.AutoUpdateUsers {
		a.loops = buildLoops(cfg, repos, ratingService, metrics, clock, logger)
	} else {
		logger.Info("player sync workers disabled", "reason", "OSU_AUTO_UPDATE_USERS=false")
	}

	return a, nil
}

func (a *App) openRepositories(ctx context.Context) (repositories, error) {
	if a.cfg.Storage == config.StorageMemory {
		db := memory.NewDatabase()
		if a.cfg.SeedOnBoot {
			seeded, err := memory.NewSeededDatabase(ctx)
			if err != nil {
				return repositories{}, fmt.Errorf("seed memory storage: %w", err)
			}
			db = seeded
		}
		a.logger.Info("using in-memory storage", "seeded", a.cfg.SeedOnBoot)
		return repositories{
			matches:     memory.NewMatchRepository(db),
			tournaments: memory.NewTournamentRepository(db),
			duplicates:  memory.NewDuplicateRepository(db),
			players:     memory.NewPlayerRepository(db),
			ratings:     memory.NewRatingRepository(db),
			users:       memory.NewUserRepository(db),
		}, nil
	}

	db, err := postgres.Open(ctx, postgres.OpenConfig{
		URL:                   a.cfg.DBURL,
		DisablePreparedBinary: a.cfg.DBDisablePreparedBinary,
		MaxOpenConns:          10,
		MaxIdleConns:          5,
		ConnMaxIdleTime:       5 * time.Minute,
	})
	if err != nil {
		return repositories{}, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	if a.cfg.SeedOnBoot {
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			return repositories{}, fmt.Errorf("seed postgres: %w", err)
		}
	}
	a.logger.Info("using postgres storage", "db_name", postgres.DatabaseName(a.cfg.DBURL), "seeded", a.cfg.SeedOnBoot)

	return repositories{
		matches:     postgres.NewMatchRepository(db),
		tournaments: postgres.NewTournamentRepository(db),
		duplicates:  postgres.NewDuplicateRepository(db),
		players:     postgres.NewPlayerRepository(db),
		ratings:     postgres.NewRatingRepository(db),
		users:       postgres.NewUserRepository(db),
	}, nil
}

func buildLoops(cfg config.Config, repos repositories, ratings *usecase.RatingService, metrics *observability.Metrics, clock clockwork.Clock, logger *logging.Logger) []worker.Loop {
	osuClient := osuapi.NewClient(osuapi.ClientConfig{
		HTTPClient:        tracedHTTPClient(cfg.OsuAPITimeout),
		BaseURL:           cfg.OsuAPIBaseURL,
		APIKey:            cfg.OsuAPIKey,
		Timeout:           cfg.OsuAPITimeout,
		MaxRetries:        cfg.OsuAPIMaxRetries,
		RequestsPerMinute: cfg.OsuAPIRatePerMin,
		Logger:            logger,
		CircuitBreaker:    cfg.OsuAPICircuit,
	})
	trackClient := osutrack.NewClient(osutrack.ClientConfig{
		HTTPClient: tracedHTTPClient(cfg.OsuTrackTimeout),
		BaseURL:    cfg.OsuTrackBaseURL,
		Timeout:    cfg.OsuTrackTimeout,
		Logger:     logger,
	})

	playerData := worker.NewPlayerDataWorker(repos.players, osuClient, worker.PlayerDataConfig{
		StaleAfter:  cfg.PlayerSyncStaleAfter,
		BatchSize:   cfg.PlayerSyncBatchSize,
		Concurrency: cfg.PlayerSyncConcurrency,
		Clock:       clock,
		Logger:      logger,
	})
	osuTrack := worker.NewOsuTrackWorker(
		repos.players,
		ratings,
		trackClient,
		worker.NewWindowLimiter(cfg.OsuTrackRateLimit, cfg.OsuTrackRateWindow, clock),
		worker.OsuTrackConfig{
			BatchSize: cfg.OsuTrackBatchSize,
			Clock:     clock,
			Logger:    logger,
		},
	)

	return []worker.Loop{
		{
			Name:     "player_data",
			Interval: cfg.PlayerSyncInterval,
			Clock:    clock,
			Run:      playerData.RunOnce,
			Logger:   logger,
			Metrics:  metrics,
		},
		{
			Name:     "osutrack",
			Interval: cfg.OsuTrackInterval,
			Clock:    clock,
			Run:      osuTrack.RunOnce,
			Logger:   logger,
			Metrics:  metrics,
		},
	}
}

func tracedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Run serves HTTP and drives the background loops until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(a.serveHTTP)
	for _, loop := range a.loops {
		p.Go(loop.Start)
	}
	if a.cfg.PprofEnabled {
		p.Go(func(ctx context.Context) error {
			return observability.RunPprofServer(ctx, a.cfg.PprofAddr, a.logger)
		})
	}

	return p.Wait()
}

func (a *App) serveHTTP(ctx context.Context) error {
	return observability.Serve(ctx, a.server, shutdownTimeout, a.logger.Named("http"))
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close releases resources in reverse acquisition order.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("close resource failed", "error", err)
		}
	}
	a.closers = nil
}
