package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/custodial-bet-settlement/internal/bet"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/dto"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/lock"
	"github.com/radieske/custodial-bet-settlement/internal/bet-service/repo"
	"github.com/radieske/custodial-bet-settlement/internal/lifecycle"
	"github.com/radieske/custodial-bet-settlement/internal/settlement"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
	"github.com/radieske/custodial-bet-settlement/pkg/contracts/events"
)

// Repo define as operações de persistência usadas pelo handler HTTP
type Repo interface {
	Create(ctx context.Context, s bet.Snapshot) error
	Get(ctx context.Context, betID string) (bet.Snapshot, error)
	List(ctx context.Context, limit int) ([]bet.Snapshot, error)
	Update(ctx context.Context, s bet.Snapshot, prevStatus bet.Status) error
}

// Locker serializa as operações de uma mesma aposta entre réplicas
type Locker interface {
	Acquire(ctx context.Context, betID string) (release func(context.Context) error, err error)
}

type Publisher interface {
	PublishLifecycle(ctx context.Context, e events.BetLifecycle) error
}

// Server expõe a API de apostas e liquidação
type Server struct {
	log     *zap.Logger
	repo    Repo
	locker  Locker
	svc     *settlement.Service
	publ    Publisher
	metrics *metrics.Collectors
}

func NewServer(log *zap.Logger, r Repo, l Locker, svc *settlement.Service, p Publisher, m *metrics.Collectors) *Server {
	return &Server{log: log, repo: r, locker: l, svc: svc, publ: p, metrics: m}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bets", s.createBet)
	mux.HandleFunc("GET /bets", s.listBets)
	mux.HandleFunc("GET /bets/{id}", s.getBet)
	mux.HandleFunc("POST /bets/{id}/wager", s.wager)
	mux.HandleFunc("POST /bets/{id}/payout", s.payout)
	mux.HandleFunc("POST /bets/{id}/refund", s.refund)
	mux.HandleFunc("POST /bets/{id}/validate", s.validate)
	return mux
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	b := bet.New(uuid.NewString(), req.Amount, req.Currency)
	for k, v := range req.Metadata {
		b.Metadata()[k] = v
	}
	if err := s.repo.Create(r.Context(), b.Snapshot()); err != nil {
		s.log.Error("create bet", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create bet")
		return
	}

	s.log.Info("bet opened", zap.String("bet_id", b.ID()), zap.String("amount", b.Amount().String()), zap.String("currency", b.Currency()))
	writeJSON(w, http.StatusCreated, b.Snapshot())
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// listBets lista abertas, travadas e encerradas, nessa ordem
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	bets, err := s.repo.List(r.Context(), limit)
	if err != nil {
		s.fail(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ListResponse{Bets: bets})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) wager(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "wager", events.BetWagered, func(ctx context.Context, b *bet.Bet) (string, error) {
		return s.svc.InitWager(ctx, b)
	})
}

func (s *Server) payout(w http.ResponseWriter, r *http.Request) {
	var req dto.PayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Destination == "" {
		writeError(w, http.StatusBadRequest, "destination required")
		return
	}
	s.transition(w, r, "payout", events.BetSettled, func(ctx context.Context, b *bet.Bet) (string, error) {
		return s.svc.ReleasePayout(ctx, b, req.Destination)
	})
}

func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "refund", events.BetRefunded, func(ctx context.Context, b *bet.Bet) (string, error) {
		return s.svc.RefundWager(ctx, b)
	})
}

// transition executa uma operação do orquestrador com a aposta travada:
// lock -> carrega -> opera -> persiste -> publica evento
func (s *Server) transition(w http.ResponseWriter, r *http.Request, op, eventType string, fn func(context.Context, *bet.Bet) (string, error)) {
	ctx := r.Context()
	betID := r.PathValue("id")

	release, err := s.locker.Acquire(ctx, betID)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	defer func() {
		// o contexto da requisição pode já ter sido cancelado
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := release(rctx); err != nil {
			s.log.Warn("release lock", zap.String("bet_id", betID), zap.Error(err))
		}
	}()

	snap, err := s.repo.Get(ctx, betID)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	b, err := bet.FromSnapshot(snap)
	if err != nil {
		s.log.Error("corrupted bet row", zap.String("bet_id", betID), zap.Error(err))
		s.fail(w, op, err)
		return
	}
	prev := b.Status()

	txID, err := fn(ctx, b)
	if err != nil {
		s.fail(w, op, err)
		return
	}

	if err := s.repo.Update(ctx, b.Snapshot(), prev); err != nil {
		// custodiante já executou: tx_id no log para conciliação manual
		s.log.Error("persist bet after provider call",
			zap.String("bet_id", betID),
			zap.String("op", op),
			zap.String("tx_id", txID),
			zap.Error(err),
		)
		s.fail(w, op, err)
		return
	}

	if err := s.publ.PublishLifecycle(ctx, lifecycle.Event(eventType, txID, b.Snapshot())); err != nil {
		s.log.Warn("publish lifecycle", zap.String("bet_id", betID), zap.String("event", eventType), zap.Error(err))
	}

	s.metrics.SettlementOps.WithLabelValues(op, "ok").Inc()
	writeJSON(w, http.StatusOK, dto.SettlementResponse{BetID: betID, Status: b.Status(), TxID: txID})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	betID := r.PathValue("id")

	snap, err := s.repo.Get(r.Context(), betID)
	if err != nil {
		s.fail(w, "validate", err)
		return
	}
	b, err := bet.FromSnapshot(snap)
	if err != nil {
		s.fail(w, "validate", err)
		return
	}
	if err := b.ValidateSettlement(bet.Action(req.Action), req.TxID); err != nil {
		s.fail(w, "validate", err)
		return
	}

	s.metrics.SettlementOps.WithLabelValues("validate", "ok").Inc()
	writeJSON(w, http.StatusOK, dto.ValidateResponse{BetID: betID, Action: req.Action, TxID: req.TxID, Valid: true})
}

// fail traduz o erro de domínio em status HTTP e contabiliza o resultado
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	code, kind := classify(err)
	s.metrics.SettlementOps.WithLabelValues(op, kind).Inc()
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("op", op), zap.Error(err))
	} else {
		s.log.Debug("request rejected", zap.String("op", op), zap.Error(err))
	}
	writeError(w, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, lock.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, repo.ErrStaleWrite):
		return http.StatusConflict, "stale"
	case errors.Is(err, bet.ErrInvalidAction):
		return http.StatusBadRequest, "invalid_action"
	case errors.Is(err, bet.ErrPrecondition):
		return http.StatusConflict, "precondition"
	case errors.Is(err, bet.ErrDuplicateTransaction):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, bet.ErrUnsettledWager):
		return http.StatusConflict, "unsettled"
	case errors.Is(err, bet.ErrSettlementMismatch):
		return http.StatusConflict, "mismatch"
	case errors.Is(err, settlement.ErrProvider), errors.Is(err, bet.ErrEmptyTransactionID):
		return http.StatusBadGateway, "provider"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, dto.ErrorResponse{Error: msg})
}
