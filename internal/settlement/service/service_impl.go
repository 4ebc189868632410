package service

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/config"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	taxdomain "github.com/smallbiznis/settlement/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const generationLockTTL = 2 * time.Minute

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Settings   *config.SettlementConfigHolder
	Repo       settlementdomain.Repository
	Orders     orderdomain.Repository
	Calculator taxdomain.Calculator
	Exporter   settlementdomain.ReceiptExporter `optional:"true"`
	Locker     settlementdomain.Locker          `optional:"true"`
	Metrics    *obsmetrics.Metrics              `optional:"true"`
}

type Service struct {
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	loc           *time.Location
	exportTimeout time.Duration
	settings      *config.SettlementConfigHolder
	repo          settlementdomain.Repository
	orders        orderdomain.Repository
	calculator    taxdomain.Calculator
	exporter      settlementdomain.ReceiptExporter
	locker        settlementdomain.Locker
	metrics       *obsmetrics.Metrics
}

func NewService(p ServiceParam) settlementdomain.Service {
	exportTimeout := p.Config.Receipt.ExportTimeout
	if exportTimeout <= 0 {
		exportTimeout = 30 * time.Second
	}
	return &Service{
		log:           p.Log.Named("settlement.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		loc:           p.Config.Location(),
		exportTimeout: exportTimeout,
		settings:      p.Settings,
		repo:          p.Repo,
		orders:        p.Orders,
		calculator:    p.Calculator,
		exporter:      p.Exporter,
		locker:        p.Locker,
		metrics:       p.Metrics,
	}
}

func AsGenerator(s settlementdomain.Service) settlementdomain.Generator { return s }
func AsQuery(s settlementdomain.Service) settlementdomain.Query         { return s }
func AsLifecycle(s settlementdomain.Service) settlementdomain.Lifecycle { return s }

// dateOf maps t onto its calendar day in the service location. Dates read
// back from a DATE column come out as UTC midnight, so the calendar fields
// are taken as-is rather than converted.
func (s *Service) dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) today() time.Time {
	return clock.StartOfDay(s.clock.Now(), s.loc)
}

func (s *Service) dayWindow(date time.Time) (time.Time, time.Time) {
	return date, clock.EndOfDay(date, s.loc)
}

func (s *Service) eligibleStatuses() []orderdomain.Status {
	return orderdomain.ParseStatuses(s.settings.Get().EligibleOrderStatuses)
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func itemsFromOrders(orders []orderdomain.Order) []settlementdomain.SettlementItem {
	items := make([]settlementdomain.SettlementItem, 0, len(orders))
	for _, o := range orders {
		for _, it := range o.Items {
			items = append(items, settlementdomain.SettlementItem{
				OrderID:     o.ID,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				TotalPrice:  it.LineTotal(),
			})
		}
	}
	return items
}
