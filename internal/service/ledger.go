package service

import (
	"context"
	"fmt"
	"slices"

	"qrpay/internal/entity"
	"qrpay/pkg/logger"
	"qrpay/pkg/metric"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService reads and appends ledger entries. Entries are returned newest first;
// entries sharing a timestamp have no defined relative order.
type LedgerService struct {
	repo      LedgerRepository
	publisher EventPublisher
	metrics   metric.Payments
	log       logger.Logger
}

// NewLedgerService accepts a nil publisher when event streaming is disabled.
func NewLedgerService(
	repo LedgerRepository,
	publisher EventPublisher,
	metrics metric.Payments,
	log logger.Logger,
) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

func (s *LedgerService) Append(ctx context.Context, txn *entity.Transaction) error {
	if err := s.repo.Append(ctx, txn); err != nil {
		return fmt.Errorf("service.LedgerAppend: %w", err)
	}
	s.Recorded(ctx, txn)
	return nil
}

// Recorded runs the post-append side effects for an entry another repository already
// persisted. Publish failures are logged and never undo the entry.
func (s *LedgerService) Recorded(ctx context.Context, txn *entity.Transaction) {
	const op = "service.LedgerRecorded"

	s.metrics.TransactionRecorded(string(txn.Kind), txn.Amount.InexactFloat64())

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransaction(ctx, txn); err != nil {
		s.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "ledger event publish failed",
			logger.String("op", op),
			logger.String("transaction_id", txn.ID.String()),
			logger.Err(err),
		)
	}
}

func (s *LedgerService) ListFor(ctx context.Context, identityID uuid.UUID) ([]*entity.Transaction, error) {
	txns, err := s.repo.ListFor(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("service.LedgerListFor: %w", err)
	}
	sortNewestFirst(txns)
	return txns, nil
}

func (s *LedgerService) ListAll(ctx context.Context) ([]*entity.Transaction, error) {
	txns, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.LedgerListAll: %w", err)
	}
	sortNewestFirst(txns)
	return txns, nil
}

// AggregateRevenue counts entries without a fee split as zero fee and zero net.
func (s *LedgerService) AggregateRevenue(ctx context.Context) (*entity.RevenueSummary, error) {
	txns, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.AggregateRevenue: %w", err)
	}

	summary := &entity.RevenueSummary{
		GrossTotal:       decimal.Zero,
		VendorNetTotal:   decimal.Zero,
		PlatformFeeTotal: decimal.Zero,
	}
	for _, t := range txns {
		summary.Count++
		summary.GrossTotal = summary.GrossTotal.Add(t.Amount)
		if t.VendorAmount.Valid {
			summary.VendorNetTotal = summary.VendorNetTotal.Add(t.VendorAmount.Decimal)
		}
		if t.PlatformFee.Valid {
			summary.PlatformFeeTotal = summary.PlatformFeeTotal.Add(t.PlatformFee.Decimal)
		}
	}
	return summary, nil
}

func sortNewestFirst(txns []*entity.Transaction) {
	slices.SortStableFunc(txns, func(a, b *entity.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
