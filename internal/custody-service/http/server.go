package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/custodial-bet-settlement/internal/custody-service/dto"
	"github.com/radieske/custodial-bet-settlement/internal/custody-service/repo"
	"github.com/radieske/custodial-bet-settlement/internal/shared/metrics"
)

// Repo define a interface de operações do custodiante usadas pelo handler HTTP
type Repo interface {
	Charge(ctx context.Context, amount decimal.Decimal, currency, reference string) (txID string, replay bool, err error)
	Payout(ctx context.Context, amount decimal.Decimal, currency, destination string) (txID string, err error)
	Refund(ctx context.Context, sourceTxID string) (txID string, replay bool, err error)
	Get(ctx context.Context, txID string) (repo.Transaction, error)
	ListByReference(ctx context.Context, reference string) ([]repo.Transaction, error)
}

// Server expõe endpoints HTTP do custodiante simulado
type Server struct {
	log     *zap.Logger
	repo    Repo
	metrics *metrics.Collectors
}

// NewServer instancia o servidor HTTP do custody-service
func NewServer(log *zap.Logger, r Repo, m *metrics.Collectors) *Server {
	return &Server{log: log, repo: r, metrics: m}
}

// Router retorna o mux HTTP com as rotas da API de custódia
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /custody/charge", s.charge)
	mux.HandleFunc("POST /custody/payout", s.payout)
	mux.HandleFunc("POST /custody/refund", s.refund)
	mux.HandleFunc("GET /custody/transactions", s.listTransactions)
	mux.HandleFunc("GET /custody/transactions/{id}", s.getTransaction)
	return mux
}

// charge registra a cobrança de uma aposta
func (s *Server) charge(w http.ResponseWriter, r *http.Request) {
	var req dto.ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() || req.Currency == "" || req.Reference == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	txID, replay, err := s.repo.Charge(r.Context(), req.Amount, req.Currency, req.Reference)
	if err != nil {
		s.log.Error("charge", zap.String("reference", req.Reference), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.record(repo.KindCharge, replay)
	s.log.Info("charge recorded", zap.String("tx_id", txID), zap.String("reference", req.Reference), zap.Bool("replay", replay))
	writeJSON(w, dto.TxResponse{TxID: txID, Replay: replay})
}

// payout registra o pagamento a um destino
func (s *Server) payout(w http.ResponseWriter, r *http.Request) {
	var req dto.PayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() || req.Currency == "" || req.Destination == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	txID, err := s.repo.Payout(r.Context(), req.Amount, req.Currency, req.Destination)
	if err != nil {
		s.log.Error("payout", zap.String("destination", req.Destination), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.record(repo.KindPayout, false)
	s.log.Info("payout recorded", zap.String("tx_id", txID), zap.String("destination", req.Destination))
	writeJSON(w, dto.TxResponse{TxID: txID})
}

// refund estorna uma cobrança existente
func (s *Server) refund(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.SourceTxID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	txID, replay, err := s.repo.Refund(r.Context(), req.SourceTxID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "charge not found", http.StatusNotFound)
			return
		}
		s.log.Error("refund", zap.String("source_tx_id", req.SourceTxID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.record(repo.KindRefund, replay)
	s.log.Info("refund recorded", zap.String("tx_id", txID), zap.String("source_tx_id", req.SourceTxID), zap.Bool("replay", replay))
	writeJSON(w, dto.TxResponse{TxID: txID, Replay: replay})
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, toResponse(t))
}

// listTransactions lista a cobrança de uma referência (betId) e seu estorno
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("reference")
	if ref == "" {
		http.Error(w, "reference required", http.StatusBadRequest)
		return
	}
	txs, err := s.repo.ListByReference(r.Context(), ref)
	if err != nil {
		s.log.Error("list transactions", zap.String("reference", ref), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toResponse(t))
	}
	writeJSON(w, out)
}

func toResponse(t repo.Transaction) dto.TransactionResponse {
	out := dto.TransactionResponse{
		TxID:        t.ID,
		Kind:        t.Kind,
		Currency:    t.Currency,
		Reference:   t.Reference,
		Destination: t.Destination,
		SourceTxID:  t.SourceTxID,
		CreatedAt:   t.CreatedAt,
	}
	if t.Amount.Valid {
		out.Amount = &t.Amount.Decimal
	}
	return out
}

func (s *Server) record(kind string, replay bool) {
	s.metrics.CustodyTx.WithLabelValues(kind, strconv.FormatBool(replay)).Inc()
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
