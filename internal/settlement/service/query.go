package service

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
)

const periodLayout = "2006-01"

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*settlementdomain.Settlement, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, settlementdomain.ErrSettlementNotFound
	}
	return record, nil
}

// GetDaily returns the settlement for date together with the sum of
// total amounts from the first of the month through date.
func (s *Service) GetDaily(ctx context.Context, storeID int64, date time.Time) (*settlementdomain.DailyView, error) {
	if storeID <= 0 {
		return nil, settlementdomain.ErrInvalidStore
	}
	if date.IsZero() {
		return nil, settlementdomain.ErrInvalidDate
	}
	day := s.dateOf(date)

	record, err := s.repo.FindByStoreAndDate(ctx, storeID, day)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, settlementdomain.ErrSettlementNotFound
	}

	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, s.loc)
	monthToDate, err := s.repo.ListByStoreAndRange(ctx, storeID, monthStart, day)
	if err != nil {
		return nil, err
	}
	accumulated := decimal.Zero
	for _, r := range monthToDate {
		accumulated = accumulated.Add(r.TotalSettlementAmount)
	}

	orders, err := s.GetOrdersBySettlementDate(ctx, storeID, day)
	if err != nil {
		return nil, err
	}

	return &settlementdomain.DailyView{
		Settlement:               *record,
		MonthlyAccumulatedAmount: accumulated,
		Items:                    itemsFromOrders(orders),
	}, nil
}

// GetMonthly sums every settlement of period ("YYYY-MM"), each column
// independently. Status and payout date are taken from the latest-dated
// record. An empty month is a zero view, not an error.
func (s *Service) GetMonthly(ctx context.Context, storeID int64, period string) (*settlementdomain.MonthlyView, error) {
	if storeID <= 0 {
		return nil, settlementdomain.ErrInvalidStore
	}
	monthStart, err := s.parsePeriod(period)
	if err != nil {
		return nil, err
	}
	monthEnd := monthStart.AddDate(0, 1, -1)

	records, err := s.repo.ListByStoreAndRange(ctx, storeID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	view := &settlementdomain.MonthlyView{
		StoreID:          storeID,
		Period:           monthStart.Format(periodLayout),
		TotalAmount:      decimal.Zero,
		SupplyAmount:     decimal.Zero,
		TaxAmount:        decimal.Zero,
		CommissionAmount: decimal.Zero,
		SettlementAmount: decimal.Zero,
		Settlements:      records,
		Items:            []settlementdomain.SettlementItem{},
	}
	if view.Settlements == nil {
		view.Settlements = []settlementdomain.Settlement{}
	}

	var latest *settlementdomain.Settlement
	for i := range records {
		r := &records[i]
		view.OrderCount += r.OrderCount
		view.TotalAmount = view.TotalAmount.Add(r.TotalSettlementAmount)
		view.SupplyAmount = view.SupplyAmount.Add(r.SupplyAmount)
		view.TaxAmount = view.TaxAmount.Add(r.TaxAmount)
		view.CommissionAmount = view.CommissionAmount.Add(r.CommissionAmount)
		view.SettlementAmount = view.SettlementAmount.Add(r.SettlementAmount)
		if latest == nil || r.SettlementDate.After(latest.SettlementDate) {
			latest = r
		}
	}
	if latest != nil {
		status := latest.Status
		view.Status = &status
		view.PayoutDate = latest.PayoutDate
	}

	for _, r := range records {
		orders, err := s.GetOrdersBySettlementDate(ctx, storeID, r.SettlementDate)
		if err != nil {
			return nil, err
		}
		view.Items = append(view.Items, itemsFromOrders(orders)...)
	}
	return view, nil
}

func (s *Service) GetStats(ctx context.Context, storeID int64, start, end time.Time) ([]settlementdomain.Settlement, error) {
	if storeID <= 0 {
		return nil, settlementdomain.ErrInvalidStore
	}
	if start.IsZero() || end.IsZero() {
		return nil, settlementdomain.ErrInvalidPeriod
	}
	from, to := s.dateOf(start), s.dateOf(end)
	if from.After(to) {
		return nil, settlementdomain.ErrInvalidPeriod
	}
	records, err := s.repo.ListByStoreAndRange(ctx, storeID, from, to)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []settlementdomain.Settlement{}
	}
	return records, nil
}

func (s *Service) GetList(ctx context.Context, storeID int64) ([]settlementdomain.Settlement, error) {
	if storeID <= 0 {
		return nil, settlementdomain.ErrInvalidStore
	}
	records, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []settlementdomain.Settlement{}
	}
	return records, nil
}

// GetOrderCountInTerm sums order counts over [today - termDays, today].
func (s *Service) GetOrderCountInTerm(ctx context.Context, storeID int64, termDays int) (int64, error) {
	if storeID <= 0 {
		return 0, settlementdomain.ErrInvalidStore
	}
	if termDays < 0 {
		return 0, settlementdomain.ErrInvalidPeriod
	}
	today := s.today()
	return s.repo.SumOrderCount(ctx, storeID, today.AddDate(0, 0, -termDays), today)
}

func (s *Service) GetOrdersBySettlementDate(ctx context.Context, storeID int64, date time.Time) ([]orderdomain.Order, error) {
	if storeID <= 0 {
		return nil, settlementdomain.ErrInvalidStore
	}
	if date.IsZero() {
		return nil, settlementdomain.ErrInvalidDate
	}
	start, end := s.dayWindow(s.dateOf(date))
	orders, err := s.orders.ListOrders(ctx, storeID, s.eligibleStatuses(), start, end)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []orderdomain.Order{}
	}
	return orders, nil
}

// OpenReceipt returns the stored receipt bytes and a download file name.
func (s *Service) OpenReceipt(ctx context.Context, id snowflake.ID) ([]byte, string, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if record.ReceiptURL == nil || *record.ReceiptURL == "" || s.exporter == nil {
		return nil, "", settlementdomain.ErrReceiptNotFound
	}
	data, err := s.exporter.Open(ctx, *record.ReceiptURL)
	if err != nil {
		return nil, "", err
	}
	name := path.Base(*record.ReceiptURL)
	if name == "." || name == "/" {
		name = fmt.Sprintf("settlement-%d-%s.pdf", record.StoreID, s.dateOf(record.SettlementDate).Format(dateLayout))
	}
	return data, name, nil
}

func (s *Service) parsePeriod(period string) (time.Time, error) {
	if !periodPattern.MatchString(period) {
		return time.Time{}, settlementdomain.ErrInvalidPeriod
	}
	parsed, err := time.ParseInLocation(periodLayout, period, s.loc)
	if err != nil {
		return time.Time{}, settlementdomain.ErrInvalidPeriod
	}
	return parsed, nil
}
