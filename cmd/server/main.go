package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"kedaipos/backend/internal/cache"
	"kedaipos/backend/internal/config"
	"kedaipos/backend/internal/httpapi"
	"kedaipos/backend/internal/obs"
	"kedaipos/backend/internal/service"
	"kedaipos/backend/internal/store"
	"kedaipos/backend/internal/store/memory"
	pgstore "kedaipos/backend/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid security configuration")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := pgstore.Migrate(cfg.DatabaseURL); err != nil {
				logger.Fatal().Err(err).Msg("migrations failed")
			}
			logger.Info().Msg("migrations applied")
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info().Str("repository", "postgres").Msg("repository ready")
	} else {
		repo = memory.NewSeeded()
		logger.Info().Str("repository", "memory").Msg("repository ready")
	}

	var (
		carts       cache.CartStore = cache.NewMemoryCartStore()
		locker      cache.Locker    = cache.NewLocalLocker()
		unlockStore limiter.Store
	)
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, carts and locks stay in process")
			_ = rdb.Close()
		} else {
			carts = cache.NewRedisCartStore(rdb, cfg.CartTTL)
			locker = cache.RedisLocker{R: rdb}
			unlockStore, err = limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "kedaipos:limiter"})
			if err != nil {
				logger.Warn().Err(err).Msg("redis limiter store unavailable, using in-process store")
				unlockStore = nil
			}
			closers = append(closers, rdb.Close)
			logger.Info().Str("cache", "redis").Msg("cart store ready")
		}
	} else {
		logger.Info().Str("cache", "memory").Msg("cart store ready")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := obs.NewDomainMetrics(cfg.MetricsNamespace, reg)
	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, reg)

	svc := service.New(repo, carts, locker, service.Settings{
		StoreName:         cfg.StoreName,
		CurrencyLabel:     cfg.CurrencyLabel,
		CurrencyExponent:  cfg.CurrencyExponent,
		Location:          cfg.Location,
		LowStockThreshold: cfg.LowStockThreshold,
	}, logger, domainMetrics)

	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL, cfg.CashierPIN, cfg.ManagerPIN)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth setup failed")
	}
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin:  cfg.AllowedOrigin,
		Logger:         logger,
		UnlockStore:    unlockStore,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CurrencyLabel:  cfg.CurrencyLabel,
		Exponent:       cfg.CurrencyExponent,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Address()).Msg("POS backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdown(logger, server, closers)
}

func shutdown(logger zerolog.Logger, server *http.Server, closers []func() error) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error().Err(err).Msg("close error")
		}
	}

	logger.Info().Msg("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.ManagerPIN) < 6 {
		return fmt.Errorf("MANAGER_PIN must be set and at least 6 digits")
	}
	if !allDigits(cfg.ManagerPIN) {
		return fmt.Errorf("MANAGER_PIN must contain digits only")
	}
	if err := validatePINStrength(cfg.ManagerPIN); err != nil {
		return fmt.Errorf("MANAGER_PIN is too weak: %w", err)
	}
	if len(cfg.CashierPIN) < 4 || !allDigits(cfg.CashierPIN) {
		return fmt.Errorf("CASHIER_PIN must be set and at least 4 digits")
	}
	if cfg.CashierPIN == cfg.ManagerPIN {
		return fmt.Errorf("CASHIER_PIN must differ from MANAGER_PIN")
	}
	return nil
}

func allDigits(pin string) bool {
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return pin != ""
}

// validatePINStrength rejects PINs that are all the same digit,
// sequential (ascending or descending), or from a known-weak list.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"123456": true, "654321": true, "000000": true, "111111": true,
		"121212": true, "112233": true, "123123": true, "101010": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
