package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("source", "api"),
		attribute.String("store_id", "456"),
		attribute.String("stage", "render"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "store_id" {
			t.Fatalf("store_id must not be used as a metric label")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordSettlementCreated(context.Background(), "api", 1)
	m.RecordDuplicate(context.Background(), "api")
	m.RecordExportFailure(context.Background(), "store")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "settlement"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordSettlementCreated(context.Background(), "scheduler", 3)
	m.RecordStatusTransition(context.Background(), "PENDING", "PAID")
}
