package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/custodial-bet-settlement/internal/shared/config"
	"github.com/radieske/custodial-bet-settlement/internal/shared/logger"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
)

func rp(log *zap.Logger, to string) *httputil.ReverseProxy {
	u, err := url.Parse(to)
	if err != nil {
		log.Fatal("invalid upstream", zap.String("url", to), zap.Error(err))
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", to), zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}
	return p
}

// routes monta o mux do gateway: /api/bets/* -> bet-service, /api/custody/* -> custody-service
func routes(log *zap.Logger, betURL, custodyURL string) http.Handler {
	mux := http.NewServeMux()

	// bets (ex.: POST /api/bets/{id}/payout -> bet-service /bets/{id}/payout)
	mux.Handle("/api/bets", http.StripPrefix("/api", rp(log, betURL)))
	mux.Handle("/api/bets/", http.StripPrefix("/api", rp(log, betURL)))

	// custody (ex.: GET /api/custody/transactions/{id} -> custody-service)
	mux.Handle("/api/custody/", http.StripPrefix("/api", rp(log, custodyURL)))

	return withCORS(mux)
}

func main() {
	cfg := config.Load()
	log, err := logger.New("api-gateway", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	log = logger.WithFile(log, cfg.LogFile)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           routes(log, cfg.BetURL, cfg.CustodyURL),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("api-gateway listening",
		zap.String("addr", srv.Addr),
		zap.String("bet_url", cfg.BetURL),
		zap.String("custody_url", cfg.CustodyURL),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
