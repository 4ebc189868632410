package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/settlement/internal/clock"
	"github.com/smallbiznis/settlement/internal/config"
	obsmetrics "github.com/smallbiznis/settlement/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobDailySettlement = "daily_settlement"
	dateLayout         = "2006-01-02"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	AppConfig config.Config
	Settings  *config.SettlementConfigHolder
	Orders    orderdomain.Repository
	Generator settlementdomain.Generator
	Config    Config `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	loc       *time.Location
	settings  *config.SettlementConfigHolder
	orders    orderdomain.Repository
	generator settlementdomain.Generator
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Settings == nil || p.Orders == nil || p.Generator == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     p.Clock,
		loc:       p.AppConfig.Location(),
		settings:  p.Settings,
		orders:    p.Orders,
		generator: p.Generator,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// A timed-out run is picked up again on the next tick.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every enabled job a single time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{jobDailySettlement, s.isJobEnabled(jobDailySettlement), func(ctx context.Context) error {
			return s.runJob(ctx, jobDailySettlement, s.cfg.JobTimeout, s.DailySettlementJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// DailySettlementJob settles the previous local days covered by the look-back
// window, oldest first. Days that are already settled are skipped per store.
func (s *Scheduler) DailySettlementJob(ctx context.Context) error {
	today := clock.StartOfDay(s.clock.Now(), s.loc)
	var jobErr error
	for offset := s.cfg.LookbackDays; offset >= 1; offset-- {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.SettleDay(ctx, today.AddDate(0, 0, -offset)); err != nil {
			jobErr = errors.Join(jobErr, err)
		}
	}
	return jobErr
}

// SettleDay creates settlements for every store with eligible orders on day.
func (s *Scheduler) SettleDay(ctx context.Context, day time.Time) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobDailySettlement)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	day = clock.StartOfDay(day, s.loc)
	run.targetDate = day.Format(dateLayout)

	statuses := orderdomain.ParseStatuses(s.settings.Get().EligibleOrderStatuses)
	storeIDs, err := s.orders.ListStoreIDs(ctx, statuses, day, clock.EndOfDay(day, s.loc))
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.stores.list.failed", jobDailySettlement, 0, err)
		return err
	}
	if len(storeIDs) == 0 {
		s.logger(ctx).Debug("scheduler.settlement.no_stores", zap.String("target_date", run.targetDate))
		return nil
	}

	result, err := s.generator.CreateSettlements(ctx, day, storeIDs)
	switch {
	case err == nil:
		return s.recordBulkResult(ctx, run, result)
	case errors.Is(err, settlementdomain.ErrDuplicateSettlement):
		// Another writer settled one of the stores between the existence
		// check and the insert; the batch was rolled back as a whole.
		s.logger(ctx).Warn("scheduler.settlement.bulk_conflict",
			zap.String("target_date", run.targetDate),
			zap.Int("store_count", len(storeIDs)),
		)
		return s.settleStores(ctx, run, day, storeIDs)
	default:
		s.logSchedulerError(ctx, run, "scheduler.settlement.bulk_failed", jobDailySettlement, 0, err,
			zap.String("target_date", run.targetDate),
		)
		return err
	}
}

func (s *Scheduler) recordBulkResult(ctx context.Context, run *jobRun, result *settlementdomain.BulkResult) error {
	schedMetrics := obsmetrics.Scheduler()
	run.AddProcessed(len(result.Created))
	schedMetrics.AddBatchProcessed(jobDailySettlement, obsmetrics.SchedulerResourceSettlements, len(result.Created))

	var jobErr error
	for storeID, skipErr := range result.Skipped {
		if reason, ok := skipReason(skipErr); ok {
			run.AddSkipped(1)
			schedMetrics.IncBatchSkipped(jobDailySettlement, reason)
			continue
		}
		jobErr = errors.Join(jobErr, fmt.Errorf("store %d: %w", storeID, skipErr))
		s.logSchedulerError(ctx, run, "scheduler.settlement.store_failed", jobDailySettlement, storeID, skipErr)
	}
	for id, exportErr := range result.ExportFailures {
		s.logger(ctx).Warn("scheduler.settlement.receipt_pending",
			zap.String("settlement_id", id.String()),
			zap.Error(exportErr),
		)
	}
	return jobErr
}

func (s *Scheduler) settleStores(ctx context.Context, run *jobRun, day time.Time, storeIDs []int64) error {
	schedMetrics := obsmetrics.Scheduler()
	var jobErr error
	for _, storeID := range storeIDs {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		_, err := s.generator.CreateSettlement(ctx, storeID, day)
		if err == nil {
			run.AddProcessed(1)
			schedMetrics.AddBatchProcessed(jobDailySettlement, obsmetrics.SchedulerResourceSettlements, 1)
			continue
		}
		if reason, ok := skipReason(err); ok {
			run.AddSkipped(1)
			schedMetrics.IncBatchSkipped(jobDailySettlement, reason)
			continue
		}
		jobErr = errors.Join(jobErr, fmt.Errorf("store %d: %w", storeID, err))
		s.logSchedulerError(ctx, run, "scheduler.settlement.store_failed", jobDailySettlement, storeID, err)
	}
	return jobErr
}

func skipReason(err error) (string, bool) {
	switch {
	case errors.Is(err, settlementdomain.ErrDuplicateSettlement):
		return obsmetrics.SchedulerSkipReasonDuplicate, true
	case errors.Is(err, settlementdomain.ErrNoEligibleOrders):
		return obsmetrics.SchedulerSkipReasonNoOrders, true
	default:
		return "", false
	}
}
