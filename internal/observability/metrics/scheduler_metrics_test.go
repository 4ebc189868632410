package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"}),
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIsSchedulerErrorRetryable(t *testing.T) {
	if !IsSchedulerErrorRetryable(context.DeadlineExceeded) {
		t.Fatalf("deadline should be retryable")
	}
	if IsSchedulerErrorRetryable(gorm.ErrDuplicatedKey) {
		t.Fatalf("unique violations are never retried")
	}
	if IsSchedulerErrorRetryable(errors.New("no_eligible_orders")) {
		t.Fatalf("business errors should not be retryable")
	}
}

func TestAddBatchProcessedAndSkipped(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "settlement",
		Environment: "test",
	})

	metrics.AddBatchProcessed("daily_settlement", SchedulerResourceSettlements, 3)
	metrics.IncBatchSkipped("daily_settlement", SchedulerSkipReasonDuplicate)
	metrics.IncBatchSkipped("daily_settlement", SchedulerSkipReasonDuplicate)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("daily_settlement", SchedulerResourceSettlements))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
	skipped := testutil.ToFloat64(metrics.batchSkipped.WithLabelValues("daily_settlement", SchedulerSkipReasonDuplicate))
	if skipped != 2 {
		t.Fatalf("expected skipped count 2, got %v", skipped)
	}
}
