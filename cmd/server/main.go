// Command server runs the reservation hold API.
//
//	@title						go-stay-holds API
//	@version					1.0
//	@description				Short-lived date-range holds for lodging checkout: conflict checks, acquisition, release, commit-time verification, countdown snapshots, and waitlists.
//	@BasePath					/api/v1
//	@schemes					http https
//	@securityDefinitions.apikey	HolderID
//	@in							header
//	@name						X-User-ID
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-stay-holds/docs"
	"github.com/tbourn/go-stay-holds/internal/config"
	"github.com/tbourn/go-stay-holds/internal/events"
	httpapi "github.com/tbourn/go-stay-holds/internal/http"
	"github.com/tbourn/go-stay-holds/internal/http/middleware"
	"github.com/tbourn/go-stay-holds/internal/observability"
	"github.com/tbourn/go-stay-holds/internal/ratelimit"
	"github.com/tbourn/go-stay-holds/internal/repo"
	"github.com/tbourn/go-stay-holds/internal/sysutil"
	"github.com/tbourn/go-stay-holds/internal/ttlcache"
)

const (
	shutdownTimeout     = 10 * time.Second
	replayPurgeInterval = time.Hour
)

func main() {
	// .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")

	sysutil.SetLogLevel(cfg.LogLevel)
	sysutil.InstallLogger(sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName, version))

	if err := run(cfg, version); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config, version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	deps := httpapi.Deps{DB: db}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Limiter and replay store fail open, so a cold Redis is survivable.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup")
		}
		deps.Limiter = ratelimit.New(ttlcache.NewRedis[ratelimit.Bucket](rdb, "holds:rl:"), nil)
		deps.Replays = ttlcache.NewRedis[middleware.StoredResponse](rdb, "holds:idem:")
		log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limits shared via redis")
	} else {
		go purgeReplays(ctx, db, replayPurgeInterval)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.WaitlistTopic)
		if err != nil {
			return err
		}
		defer pub.Close()
		deps.Publisher = pub
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.WaitlistTopic).Msg("waitlist events enabled")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = version
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// purgeReplays drops expired replay_records rows until ctx is done. Reads
// already ignore expired rows; this only bounds table growth.
func purgeReplays(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredReplays(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge replays")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged expired replays")
			}
		}
	}
}
