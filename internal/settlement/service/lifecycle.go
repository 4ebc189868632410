package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	obslogger "github.com/smallbiznis/settlement/internal/observability/logger"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/zap"
)

// MarkPaid moves a pending settlement to PAID. A nil payoutDate defaults to
// today plus the configured payout offset.
func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID, payoutDate *time.Time) (*settlementdomain.Settlement, error) {
	if payoutDate == nil {
		d := s.today().AddDate(0, 0, s.settings.Get().PayoutOffsetDays)
		payoutDate = &d
	} else {
		d := s.dateOf(*payoutDate)
		payoutDate = &d
	}
	return s.transition(ctx, id, settlementdomain.StatusPaid, payoutDate)
}

func (s *Service) MarkCompleted(ctx context.Context, id snowflake.ID) (*settlementdomain.Settlement, error) {
	return s.transition(ctx, id, settlementdomain.StatusCompleted, nil)
}

func (s *Service) MarkFailed(ctx context.Context, id snowflake.ID) (*settlementdomain.Settlement, error) {
	return s.transition(ctx, id, settlementdomain.StatusFailed, nil)
}

// transition updates status only while the row still holds the status it
// was read with; a concurrent change surfaces as ErrStatusConflict.
func (s *Service) transition(ctx context.Context, id snowflake.ID, to settlementdomain.Status, payoutDate *time.Time) (*settlementdomain.Settlement, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := record.Status
	if !from.CanTransitionTo(to) {
		return nil, settlementdomain.ErrInvalidStatusTransition
	}

	ok, err := s.repo.UpdateStatus(ctx, id, from, to, payoutDate, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, settlementdomain.ErrStatusConflict
	}
	s.metrics.RecordStatusTransition(ctx, string(from), string(to))
	obslogger.WithStore(obslogger.WithContext(ctx, s.log), record.StoreID).Info("settlement status changed",
		zap.String("settlement_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	return s.GetByID(ctx, id)
}
