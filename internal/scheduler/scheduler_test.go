package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/config"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	orderrepo "github.com/smallbiznis/settlement/internal/order/repository"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	settlementrepo "github.com/smallbiznis/settlement/internal/settlement/repository"
	settlementservice "github.com/smallbiznis/settlement/internal/settlement/service"
	taxservice "github.com/smallbiznis/settlement/internal/tax/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db        *gorm.DB
	clock     *clock.FakeClock
	repo      settlementdomain.Repository
	scheduler *Scheduler
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&orderdomain.Order{}, &orderdomain.OrderItem{}, &settlementdomain.Settlement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	db := setupDB(t)
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 1, 20, 2, 0, 0, 0, time.UTC))
	settings := config.NewStaticSettlementConfigHolder(config.DefaultSettlementConfig())
	appCfg := config.Config{Timezone: "UTC", Receipt: config.ReceiptConfig{ExportTimeout: time.Second}}
	repo := settlementrepo.NewRepository(db)
	orders := orderrepo.NewRepository(db)

	svc := settlementservice.NewService(settlementservice.ServiceParam{
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Config:     appCfg,
		Settings:   settings,
		Repo:       repo,
		Orders:     orders,
		Calculator: taxservice.NewCalculator(taxservice.CalculatorParam{Settings: settings}),
	})

	sched, err := New(Params{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		AppConfig: appCfg,
		Settings:  settings,
		Orders:    orders,
		Generator: svc,
		Config:    cfg,
	})
	require.NoError(t, err)

	return &harness{db: db, clock: fake, repo: repo, scheduler: sched}
}

func (h *harness) seedOrder(t *testing.T, id, storeID int64, status orderdomain.Status, at time.Time, price string, qty int64) {
	t.Helper()
	order := orderdomain.Order{
		ID:        id,
		StoreID:   storeID,
		Status:    status,
		CreatedAt: at,
		UpdatedAt: at,
		Items: []orderdomain.OrderItem{{
			ID:          id * 100,
			ProductID:   id,
			ProductName: fmt.Sprintf("product-%d", id),
			UnitPrice:   decimal.RequireFromString(price),
			Quantity:    qty,
		}},
	}
	require.NoError(t, h.db.Create(&order).Error)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRunOnceSettlesPreviousDay(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	jan19 := day(2026, 1, 19)

	h.seedOrder(t, 1, 10, orderdomain.StatusPending, jan19.Add(9*time.Hour), "40000", 1)
	h.seedOrder(t, 2, 10, orderdomain.StatusPending, jan19.Add(15*time.Hour), "60000", 1)
	h.seedOrder(t, 3, 20, orderdomain.StatusPending, jan19.Add(11*time.Hour), "11000", 2)
	h.seedOrder(t, 4, 30, orderdomain.StatusCanceled, jan19.Add(11*time.Hour), "5000", 1)
	h.seedOrder(t, 5, 10, orderdomain.StatusPending, day(2026, 1, 20).Add(time.Hour), "9999", 1)

	require.NoError(t, h.scheduler.RunOnce(ctx))

	first, err := h.repo.FindByStoreAndDate(ctx, 10, jan19)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(2), first.OrderCount)
	assert.True(t, first.TotalSettlementAmount.Equal(decimal.NewFromInt(100000)))

	second, err := h.repo.FindByStoreAndDate(ctx, 20, jan19)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.TotalSettlementAmount.Equal(decimal.NewFromInt(22000)))

	canceledOnly, err := h.repo.FindByStoreAndDate(ctx, 30, jan19)
	require.NoError(t, err)
	assert.Nil(t, canceledOnly)

	today, err := h.repo.FindByStoreAndDate(ctx, 10, day(2026, 1, 20))
	require.NoError(t, err)
	assert.Nil(t, today)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	jan19 := day(2026, 1, 19)
	h.seedOrder(t, 1, 10, orderdomain.StatusPending, jan19.Add(9*time.Hour), "40000", 1)

	require.NoError(t, h.scheduler.RunOnce(ctx))
	require.NoError(t, h.scheduler.RunOnce(ctx))

	var count int64
	require.NoError(t, h.db.Model(&settlementdomain.Settlement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDailySettlementJobCoversLookbackWindow(t *testing.T) {
	h := newHarness(t, Config{LookbackDays: 3})
	ctx := context.Background()

	h.seedOrder(t, 1, 10, orderdomain.StatusPending, day(2026, 1, 17).Add(time.Hour), "1000", 1)
	h.seedOrder(t, 2, 10, orderdomain.StatusPending, day(2026, 1, 19).Add(time.Hour), "2000", 1)
	h.seedOrder(t, 3, 10, orderdomain.StatusPending, day(2026, 1, 16).Add(time.Hour), "3000", 1)

	require.NoError(t, h.scheduler.DailySettlementJob(ctx))

	list, err := h.repo.ListByStore(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].SettlementDate.Equal(day(2026, 1, 19)))
	assert.True(t, list[1].SettlementDate.Equal(day(2026, 1, 17)))
}

func TestIsJobEnabled(t *testing.T) {
	s := &Scheduler{cfg: Config{}}
	assert.True(t, s.isJobEnabled(jobDailySettlement))

	s.cfg.EnabledJobs = []string{"DAILY_SETTLEMENT"}
	assert.True(t, s.isJobEnabled(jobDailySettlement))

	s.cfg.EnabledJobs = []string{"something_else"}
	assert.False(t, s.isJobEnabled(jobDailySettlement))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 1, cfg.LookbackDays)
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
