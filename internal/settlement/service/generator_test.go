package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/config"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	orderrepo "github.com/smallbiznis/settlement/internal/order/repository"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	settlementrepo "github.com/smallbiznis/settlement/internal/settlement/repository"
	taxservice "github.com/smallbiznis/settlement/internal/tax/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// lateConflictRepo misses the pre-check and then loses the insert, the way
// a replica does when another one commits between the two calls.
type lateConflictRepo struct {
	settlementdomain.Repository
	creates int
}

func (r *lateConflictRepo) FindByStoreAndDate(context.Context, int64, time.Time) (*settlementdomain.Settlement, error) {
	return nil, nil
}

func (r *lateConflictRepo) Create(context.Context, *settlementdomain.Settlement) error {
	r.creates++
	return fmt.Errorf("insert settlement: %w", settlementdomain.ErrDuplicateSettlement)
}

type recordingLocker struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (l *recordingLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func (l *recordingLocker) held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired > l.released
}

// lockCheckingExporter records whether the generation lock was still held
// when rendering started.
type lockCheckingExporter struct {
	locker          *recordingLocker
	heldAtRender    bool
	renderWasCalled bool
}

func (e *lockCheckingExporter) Render(context.Context, settlementdomain.ReceiptDocument) ([]byte, error) {
	e.renderWasCalled = true
	e.heldAtRender = e.locker.held()
	return []byte("%PDF"), nil
}

func (e *lockCheckingExporter) Store(context.Context, []byte, string) (string, error) {
	return "store-42/receipt.pdf", nil
}

func (e *lockCheckingExporter) Open(context.Context, string) ([]byte, error) {
	return []byte("%PDF"), nil
}

type generatorDeps struct {
	repo     settlementdomain.Repository
	exporter settlementdomain.ReceiptExporter
	locker   settlementdomain.Locker
	metrics  *obsmetrics.Metrics
}

func newGenerator(t *testing.T, deps generatorDeps) (*Service, *fixture) {
	t.Helper()
	db := setupDB(t)
	realRepo := settlementrepo.NewRepository(db)
	repo := deps.repo
	if repo == nil {
		repo = realRepo
	}
	fake := clock.NewFakeClock(time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC))
	settings := config.NewStaticSettlementConfigHolder(config.DefaultSettlementConfig())

	svc := NewService(ServiceParam{
		Log:        zap.NewNop(),
		GenID:      mustNode(t),
		Clock:      fake,
		Config:     config.Config{Timezone: "UTC", Receipt: config.ReceiptConfig{ExportTimeout: time.Second}},
		Settings:   settings,
		Repo:       repo,
		Orders:     orderrepo.NewRepository(db),
		Calculator: taxservice.NewCalculator(taxservice.CalculatorParam{Settings: settings}),
		Exporter:   deps.exporter,
		Locker:     deps.locker,
		Metrics:    deps.metrics,
	}).(*Service)
	return svc, &fixture{db: db, svc: svc, repo: realRepo, clock: fake}
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name, source string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("source"); ok && v.AsString() == source {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestCreateSettlementTranslatesInsertConflict(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := obsmetrics.New(obsmetrics.Config{ServiceName: "settlement"},
		sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	repo := &lateConflictRepo{}
	locker := &recordingLocker{}
	svc, f := newGenerator(t, generatorDeps{repo: repo, locker: locker, metrics: metrics})
	jan15 := day(2026, 1, 15)
	f.seedOrder(t, 1, 42, orderdomain.StatusPending, jan15.Add(time.Hour), "100", 1)

	record, err := svc.CreateSettlement(context.Background(), 42, jan15)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, settlementdomain.ErrDuplicateSettlement)
	assert.Equal(t, 1, repo.creates)

	assert.Equal(t, int64(1), counterValue(t, reader, "settlement_duplicate_total", sourceSingle))
	assert.Equal(t, int64(0), counterValue(t, reader, "settlement_created_total", sourceSingle))
	assert.False(t, locker.held(), "lock must be released after a failed insert")
	assert.Equal(t, 1, locker.released)
}

func TestCreateSettlementReleasesLockBeforeExport(t *testing.T) {
	locker := &recordingLocker{}
	exporter := &lockCheckingExporter{locker: locker}
	svc, f := newGenerator(t, generatorDeps{exporter: exporter, locker: locker})
	jan15 := day(2026, 1, 15)
	f.seedOrder(t, 1, 42, orderdomain.StatusPending, jan15.Add(time.Hour), "100", 1)

	record, err := svc.CreateSettlement(context.Background(), 42, jan15)
	require.NoError(t, err)
	require.NotNil(t, record.ReceiptURL)

	assert.True(t, exporter.renderWasCalled)
	assert.False(t, exporter.heldAtRender, "receipt export must run outside the generation lock")
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released, "release runs once even though it is also deferred")
}
