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

	chttp "github.com/radieske/custodial-bet-settlement/internal/custody-service/http"
	crepo "github.com/radieske/custodial-bet-settlement/internal/custody-service/repo"
	"github.com/radieske/custodial-bet-settlement/internal/shared/config"
	"github.com/radieske/custodial-bet-settlement/internal/shared/db"
	"github.com/radieske/custodial-bet-settlement/internal/shared/logger"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("custody-service", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	log = logger.WithFile(log, cfg.LogFile)
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewCollectors()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("metrics register", zap.Error(err))
	}

	// Conexão com Postgres para o registro de transações
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Instancia repositório e servidor HTTP do custodiante
	api := chttp.NewServer(log, crepo.NewPostgres(pg), m)

	// Servidor HTTP público (API de custódia)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8082
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Check{Name: "pg", Fn: pg.PingContext})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	// Inicia servidor principal da API de custódia
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api srv", zap.Error(err))
	}
}
