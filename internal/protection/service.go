// Package protection implements the protected-trade submission pipeline
// and its durable store.
package protection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mevshield/mevshield/pkg/models"
)

// ErrEmptyTransaction is returned when a submission carries no raw
// transaction. Nothing is persisted and no relay token is issued.
var ErrEmptyTransaction = errors.New("raw transaction must not be empty")

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mevshield_trade_submissions_total",
		Help: "Total number of protected-trade submissions by outcome",
	}, []string{"outcome"})
)

// Service validates, persists, and acknowledges protected-trade
// submissions.
type Service struct {
	logger *zap.Logger
	store  TradeStore
}

// NewService creates the submission pipeline over the given store.
func NewService(logger *zap.Logger, store TradeStore) *Service {
	return &Service{logger: logger, store: store}
}

// Submit processes one protected-trade submission. Empty input is
// rejected before any side effect. A store failure is reported as a
// failed result to this caller only; no retry is attempted.
func (s *Service) Submit(ctx context.Context, rawTransaction string) models.SubmissionResult {
	if strings.TrimSpace(rawTransaction) == "" {
		submissionsTotal.WithLabelValues("rejected").Inc()
		return models.SubmissionResult{
			Success: false,
			Message: ErrEmptyTransaction.Error(),
		}
	}

	relayTxHash := newRelayTxHash()
	record, err := s.store.Append(ctx, rawTransaction, relayTxHash)
	if err != nil {
		submissionsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Trade submission failed", zap.Error(err))
		return models.SubmissionResult{
			Success: false,
			Message: "failed to submit trade for protection",
		}
	}

	submissionsTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("Trade submitted for protected relay",
		zap.Uint("id", record.ID),
		zap.String("relay_tx_hash", record.RelayTxHash))

	return models.SubmissionResult{
		Success:     true,
		RelayTxHash: record.RelayTxHash,
		ID:          record.ID,
	}
}

// RecentTrades exposes the store's reporting read for the API layer.
func (s *Service) RecentTrades(ctx context.Context, limit int) ([]*models.ProtectedTrade, error) {
	return s.store.Recent(ctx, limit)
}

// newRelayTxHash synthesizes an opaque relay acknowledgment token. It
// is independent of the submitted transaction content; identical
// resubmissions get distinct tokens and distinct records.
func newRelayTxHash() string {
	return fmt.Sprintf("0x%016x%016x%016x%016x",
		rand.Uint64(), rand.Uint64(), rand.Uint64(), uint64(time.Now().UnixNano()))
}
