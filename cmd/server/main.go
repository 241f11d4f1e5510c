package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/config"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/database"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/handler"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/lock"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/middleware"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/repository"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/service"
)

// stores bundles the persistence ports for one STORE_DRIVER.
type stores struct {
	obligations service.ObligationStore
	settlements service.SettlementStore
	fees        service.FeeScheduleStore
	health      handler.Pinger
	close       func()
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	gin.SetMode(cfg.GinMode)

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer st.close()

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.LockDriver).Msg("failed to set up settlement lock")
	}
	defer closeLocker()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Secure(cfg.IsProduction()))
	router.Use(middleware.RateLimit(cfg.RateLimit, time.Minute))

	healthHandler := handler.NewHealthHandler(st.health)
	router.GET("/health", healthHandler.Health)

	handler.SetupSwagger(router)
	setupAPIRoutes(router, st, locker)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreDriver).
			Str("lock", cfg.LockDriver).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		mem := repository.NewMemoryStore()
		fees := service.NewFeeScheduleService(mem, service.SystemClock{})
		for _, s := range model.DefaultFeeSchedules() {
			s := s
			if _, err := fees.Save(ctx, &s); err != nil {
				return nil, err
			}
		}
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return &stores{obligations: mem, settlements: mem, fees: mem, health: mem, close: func() {}}, nil
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			pool.Close()
			return nil, err
		}
		if err := database.SeedData(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &stores{
		obligations: repository.NewObligationRepository(pool),
		settlements: repository.NewSettlementRepository(pool),
		fees:        repository.NewFeeScheduleRepository(pool),
		health:      pool,
		close:       pool.Close,
	}, nil
}

func newLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.LockDriver == config.LockMemory {
		return lock.NewKeyedMutex(cfg.LockWait), func() {}, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	return lock.NewRedisLocker(client, cfg.LockTTL, cfg.LockWait), closeClient, nil
}

func setupAPIRoutes(router *gin.Engine, st *stores, locker lock.Locker) {
	clock := service.SystemClock{}
	resolver := service.NewFeeResolver(st.fees)

	ledgerService := service.NewLedgerService(st.obligations, st.settlements, locker, clock)
	settlementService := service.NewSettlementService(st.obligations, st.settlements, resolver, locker, clock)
	feeService := service.NewFeeScheduleService(st.fees, clock)

	handler.RegisterRoutes(router.Group("/api/v1"),
		handler.NewObligationHandler(ledgerService),
		handler.NewSettlementHandler(settlementService),
		handler.NewFeeScheduleHandler(feeService))
}
