package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	obslogger "github.com/smallbiznis/settlement/internal/observability/logger"
	"github.com/smallbiznis/settlement/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	sourceSingle = "single"
	sourceBulk   = "bulk"

	dateLayout = "2006-01-02"
)

func (s *Service) CreateSettlement(ctx context.Context, storeID int64, date time.Time) (_ *settlementdomain.Settlement, err error) {
	if storeID <= 0 {
		return nil, settlementdomain.ErrInvalidStore
	}
	if date.IsZero() {
		return nil, settlementdomain.ErrInvalidDate
	}
	day := s.dateOf(date)

	ctx, span := tracing.StartSpan(ctx, "settlement.create",
		attribute.Int64("store_id", storeID),
		attribute.String("settlement_date", day.Format(dateLayout)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	log := obslogger.WithStore(obslogger.WithContext(ctx, s.log), storeID).
		With(zap.String("settlement_date", day.Format(dateLayout)))

	release := s.acquireGenerationLock(ctx, storeID, day)
	defer release()

	existing, err := s.repo.FindByStoreAndDate(ctx, storeID, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.RecordDuplicate(ctx, sourceSingle)
		return nil, settlementdomain.ErrDuplicateSettlement
	}

	start, end := s.dayWindow(day)
	orders, err := s.orders.ListOrders(ctx, storeID, s.eligibleStatuses(), start, end)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		s.metrics.RecordNoEligibleOrders(ctx, sourceSingle)
		return nil, settlementdomain.ErrNoEligibleOrders
	}

	record, err := s.buildSettlement(storeID, day, orders)
	if err != nil {
		return nil, err
	}

	err = s.repo.Create(ctx, record)
	release()
	if err != nil {
		if errors.Is(err, settlementdomain.ErrDuplicateSettlement) {
			s.metrics.RecordDuplicate(ctx, sourceSingle)
		}
		return nil, err
	}
	s.metrics.RecordSettlementCreated(ctx, sourceSingle, 1)
	log.Info("settlement created",
		zap.String("settlement_id", record.ID.String()),
		zap.Int64("order_count", record.OrderCount),
	)

	if exportErr := s.exportReceipt(ctx, record, orders); exportErr != nil {
		log.Warn("receipt export failed", zap.String("settlement_id", record.ID.String()), zap.Error(exportErr))
	}
	return record, nil
}

// CreateSettlements generates one settlement per store for date. Stores
// that already have a record or have no eligible orders are reported in
// Skipped. The remaining records are inserted in a single transaction, so
// a concurrent insert for any of them fails the whole batch with
// ErrDuplicateSettlement.
func (s *Service) CreateSettlements(ctx context.Context, date time.Time, storeIDs []int64) (_ *settlementdomain.BulkResult, err error) {
	if date.IsZero() {
		return nil, settlementdomain.ErrInvalidDate
	}
	day := s.dateOf(date)

	ctx, span := tracing.StartSpan(ctx, "settlement.create_bulk",
		attribute.String("settlement_date", day.Format(dateLayout)),
		attribute.Int("store_count", len(storeIDs)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	result := &settlementdomain.BulkResult{
		Created:        []settlementdomain.Settlement{},
		Skipped:        map[int64]error{},
		ExportFailures: map[snowflake.ID]error{},
	}

	candidates := make([]int64, 0, len(storeIDs))
	seen := make(map[int64]struct{}, len(storeIDs))
	for _, id := range storeIDs {
		if id <= 0 {
			result.Skipped[id] = settlementdomain.ErrInvalidStore
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, id)
	}

	existing, err := s.repo.ListExistingStores(ctx, day, candidates)
	if err != nil {
		return nil, err
	}
	existingSet := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		existingSet[id] = struct{}{}
	}

	start, end := s.dayWindow(day)
	statuses := s.eligibleStatuses()
	records := make([]settlementdomain.Settlement, 0, len(candidates))
	ordersByStore := make(map[int64][]orderdomain.Order, len(candidates))
	for _, storeID := range candidates {
		if _, ok := existingSet[storeID]; ok {
			s.metrics.RecordDuplicate(ctx, sourceBulk)
			result.Skipped[storeID] = settlementdomain.ErrDuplicateSettlement
			continue
		}
		orders, err := s.orders.ListOrders(ctx, storeID, statuses, start, end)
		if err != nil {
			return nil, err
		}
		if len(orders) == 0 {
			s.metrics.RecordNoEligibleOrders(ctx, sourceBulk)
			result.Skipped[storeID] = settlementdomain.ErrNoEligibleOrders
			continue
		}
		record, err := s.buildSettlement(storeID, day, orders)
		if err != nil {
			return nil, fmt.Errorf("store %d: %w", storeID, err)
		}
		records = append(records, *record)
		ordersByStore[storeID] = orders
	}

	if err := s.repo.BulkInsert(ctx, records, s.settings.Get().BulkBatchSize); err != nil {
		return nil, err
	}
	s.metrics.RecordSettlementCreated(ctx, sourceBulk, len(records))
	s.log.Info("settlements created",
		zap.String("settlement_date", day.Format(dateLayout)),
		zap.Int("created", len(records)),
		zap.Int("skipped", len(result.Skipped)),
	)

	for i := range records {
		record := &records[i]
		if exportErr := s.exportReceipt(ctx, record, ordersByStore[record.StoreID]); exportErr != nil {
			result.ExportFailures[record.ID] = exportErr
			obslogger.WithStore(s.log, record.StoreID).Warn("receipt export failed",
				zap.String("settlement_id", record.ID.String()),
				zap.Error(exportErr),
			)
		}
		result.Created = append(result.Created, *record)
	}
	return result, nil
}

// RegenerateReceipt re-renders the receipt of an existing settlement from
// its orders and replaces the stored reference. Amounts are not touched.
func (s *Service) RegenerateReceipt(ctx context.Context, id snowflake.ID) (*settlementdomain.Settlement, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, settlementdomain.ErrSettlementNotFound
	}
	if s.exporter == nil {
		return nil, fmt.Errorf("%w: exporter not configured", settlementdomain.ErrExportFailure)
	}

	day := s.dateOf(record.SettlementDate)
	start, end := s.dayWindow(day)
	orders, err := s.orders.ListOrders(ctx, record.StoreID, s.eligibleStatuses(), start, end)
	if err != nil {
		return nil, err
	}
	if err := s.exportReceipt(ctx, record, orders); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) buildSettlement(storeID int64, day time.Time, orders []orderdomain.Order) (*settlementdomain.Settlement, error) {
	lineTotals := make([]decimal.Decimal, 0, len(orders))
	for _, o := range orders {
		for _, item := range o.Items {
			lineTotals = append(lineTotals, item.LineTotal())
		}
	}
	breakdown, err := s.calculator.Compute(lineTotals)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &settlementdomain.Settlement{
		ID:                    s.genID.Generate(),
		StoreID:               storeID,
		SettlementDate:        day,
		OrderCount:            int64(len(orders)),
		TotalSettlementAmount: breakdown.Total,
		SupplyAmount:          breakdown.Supply,
		TaxAmount:             breakdown.Tax,
		CommissionAmount:      breakdown.Commission,
		SettlementAmount:      breakdown.SettlementAmount,
		Status:                settlementdomain.StatusPending,
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	return record, nil
}

// exportReceipt renders and stores the receipt, then records the reference
// with a targeted update. It runs on a context detached from the caller's
// cancellation and bounded by the export timeout.
func (s *Service) exportReceipt(ctx context.Context, record *settlementdomain.Settlement, orders []orderdomain.Order) error {
	if s.exporter == nil {
		return nil
	}

	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.exportTimeout)
	defer cancel()

	doc := settlementdomain.ReceiptDocument{
		StoreID:          record.StoreID,
		PeriodLabel:      s.dateOf(record.SettlementDate).Format(dateLayout),
		OrderCount:       record.OrderCount,
		TotalAmount:      record.TotalSettlementAmount,
		SupplyAmount:     record.SupplyAmount,
		TaxAmount:        record.TaxAmount,
		CommissionAmount: record.CommissionAmount,
		SettlementAmount: record.SettlementAmount,
		Items:            itemsFromOrders(orders),
		GeneratedAt:      s.now(),
	}

	data, err := s.exporter.Render(exportCtx, doc)
	if err != nil {
		s.metrics.RecordExportFailure(ctx, "render")
		return fmt.Errorf("%w: render: %v", settlementdomain.ErrExportFailure, err)
	}
	hint := "settlement-" + strconv.FormatInt(record.StoreID, 10) + "-" + doc.PeriodLabel
	ref, err := s.exporter.Store(exportCtx, data, hint)
	if err != nil {
		s.metrics.RecordExportFailure(ctx, "store")
		return fmt.Errorf("%w: store: %v", settlementdomain.ErrExportFailure, err)
	}

	now := s.now()
	if err := s.repo.UpdateReceipt(exportCtx, record.ID, ref, now); err != nil {
		s.metrics.RecordExportFailure(ctx, "update")
		return fmt.Errorf("%w: update: %v", settlementdomain.ErrExportFailure, err)
	}
	record.ReceiptURL = &ref
	record.UpdatedAt = now
	return nil
}

// acquireGenerationLock narrows the window in which replicas compute the
// same settlement. The unique key stays authoritative, so lock errors only
// get logged. The returned release is idempotent; callers release right
// after the insert so receipt export runs outside the lock.
func (s *Service) acquireGenerationLock(ctx context.Context, storeID int64, day time.Time) func() {
	if s.locker == nil {
		return func() {}
	}
	key := fmt.Sprintf("settlement:generate:%d:%s", storeID, day.Format(dateLayout))
	release, err := s.locker.Acquire(ctx, key, generationLockTTL)
	if err != nil {
		s.log.Debug("generation lock not acquired", zap.String("key", key), zap.Error(err))
		return func() {}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Debug("generation lock release failed", zap.String("key", key), zap.Error(err))
			}
		})
	}
}
