package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/custodial-bet-settlement/internal/settlement-audit/consumer"
	arepo "github.com/radieske/custodial-bet-settlement/internal/settlement-audit/repo"
	"github.com/radieske/custodial-bet-settlement/internal/shared/config"
	"github.com/radieske/custodial-bet-settlement/internal/shared/db"
	"github.com/radieske/custodial-bet-settlement/internal/shared/kafka"
	"github.com/radieske/custodial-bet-settlement/internal/shared/logger"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-audit-worker", cfg.Env, cfg.LogLevel)
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

	// Conexão com Postgres para a trilha de auditoria
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: eventos bet_lifecycle publicados pelo bet-service
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetLifecycle, "settlement-audit")
	defer reader.Close()

	p := &consumer.Processor{
		Log:     log,
		Source:  consumer.KafkaSource{Reader: reader},
		Store:   arepo.NewPostgres(pg),
		Metrics: m,
	}

	// Kafka producer opcional para a DLQ
	if cfg.TopicBetLifecycleDLQ != "" {
		dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetLifecycleDLQ)
		defer dlqWriter.Close()
		p.DLQ = consumer.KafkaDLQ{Writer: dlqWriter}
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Check{Name: "pg", Fn: pg.PingContext})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("settlement-audit-worker started",
		zap.String("consume", cfg.TopicBetLifecycle),
		zap.String("dlq", cfg.TopicBetLifecycleDLQ),
	)

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("processor stopped", zap.Error(err))
	}
	log.Info("settlement-audit-worker stopped")
}
