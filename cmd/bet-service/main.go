package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/custodial-bet-settlement/internal/bet-service/custody"
	bhttp "github.com/radieske/custodial-bet-settlement/internal/bet-service/http"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/lock"
	kpub "github.com/radieske/custodial-bet-settlement/internal/bet-service/producer"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/repo"
	"github.com/radieske/custodial-bet-settlement/internal/payments"
	"github.com/radieske/custodial-bet-settlement/internal/settlement"
	"github.com/radieske/custodial-bet-settlement/internal/shared/cache"
	"github.com/radieske/custodial-bet-settlement/internal/shared/config"
	"github.com/radieske/custodial-bet-settlement/internal/shared/db"
	"github.com/radieske/custodial-bet-settlement/internal/shared/kafka"
	"github.com/radieske/custodial-bet-settlement/internal/shared/logger"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("bet-service", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	log = logger.WithFile(log, cfg.LogFile)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewCollectors()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("metrics register", zap.Error(err))
	}

	// Postgres
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (lock por aposta)
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_lifecycle)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetLifecycle)
	defer writer.Close()

	// Custodiante: custody-service via HTTP ou stub em memória
	var provider settlement.Provider
	switch cfg.ProviderMode {
	case "mock":
		provider = payments.NewMockCustodial()
	default:
		provider = custody.New(cfg.CustodyURL, cfg.ProviderTimeout)
	}
	provider = payments.NewInstrumented(provider, m.ProviderLatency, m.ProviderErrors)
	log.Info("payment provider", zap.String("mode", cfg.ProviderMode), zap.String("custody_url", cfg.CustodyURL))

	// deps
	api := bhttp.NewServer(
		log,
		repo.NewPostgres(pg),
		lock.NewRedisLocker(rdb, cfg.LockTTL),
		settlement.NewService(log.Named("settlement"), provider),
		kpub.NewKafkaPublisher(writer, cfg.TopicBetLifecycle),
		m,
	)

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.Check{Name: "pg", Fn: pg.PingContext},
		metrics.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)

	// HTTP público
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("bet-service stopped")
}
