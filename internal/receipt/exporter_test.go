package receipt

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/clock"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func sampleDocument() settlementdomain.ReceiptDocument {
	return settlementdomain.ReceiptDocument{
		StoreID:          42,
		PeriodLabel:      "2026-01-15",
		OrderCount:       2,
		TotalAmount:      decimal.NewFromInt(100000),
		SupplyAmount:     decimal.NewFromInt(90909),
		TaxAmount:        decimal.NewFromInt(9091),
		CommissionAmount: decimal.NewFromInt(5000),
		SettlementAmount: decimal.NewFromInt(95000),
		Items: []settlementdomain.SettlementItem{
			{OrderID: 1, ProductID: 7, ProductName: "Americano", Quantity: 2, UnitPrice: decimal.NewFromInt(5000), TotalPrice: decimal.NewFromInt(10000)},
			{OrderID: 2, ProductID: 8, ProductName: "Latte", Quantity: 3, UnitPrice: decimal.NewFromInt(30000), TotalPrice: decimal.NewFromInt(90000)},
		},
		GeneratedAt: time.Date(2026, 1, 16, 1, 0, 0, 0, time.UTC),
	}
}

func sampleMonthlyView() settlementdomain.MonthlyView {
	status := settlementdomain.StatusPaid
	payout := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	doc := sampleDocument()
	return settlementdomain.MonthlyView{
		StoreID:          42,
		Period:           "2026-01",
		OrderCount:       2,
		TotalAmount:      doc.TotalAmount,
		SupplyAmount:     doc.SupplyAmount,
		TaxAmount:        doc.TaxAmount,
		CommissionAmount: doc.CommissionAmount,
		SettlementAmount: doc.SettlementAmount,
		Status:           &status,
		PayoutDate:       &payout,
		Settlements: []settlementdomain.Settlement{{
			StoreID:               42,
			SettlementDate:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			OrderCount:            2,
			TotalSettlementAmount: doc.TotalAmount,
			SupplyAmount:          doc.SupplyAmount,
			TaxAmount:             doc.TaxAmount,
			Status:                status,
		}},
		Items: doc.Items,
	}
}

func TestRenderReceiptPDF(t *testing.T) {
	data, err := RenderReceiptPDF(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "expected a PDF header")
}

func TestRenderMonthlyPDF(t *testing.T) {
	data, err := RenderMonthlyPDF(sampleMonthlyView())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuildStatementXLSX(t *testing.T) {
	data, err := BuildStatementXLSX(sampleMonthlyView())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	period, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2026-01", period)

	total, err := f.GetCellValue(summarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "100000.00", total)

	product, err := f.GetCellValue(itemsSheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "Latte", product)

	day, err := f.GetCellValue(daysSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", day)
}

func TestExporterStoresAndOpensLocally(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 1, 16, 1, 0, 0, 0, time.UTC))
	exporter := NewExporter(store, "settlements", fake, zap.NewNop())
	ctx := context.Background()

	data, err := exporter.Render(ctx, sampleDocument())
	require.NoError(t, err)

	ref, err := exporter.Store(ctx, data, "Settlement 42 2026-01-15")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "settlements/2026/01/settlement-42-2026-01-15-"), ref)
	assert.True(t, strings.HasSuffix(ref, ".pdf"))

	got, err := exporter.Open(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = exporter.Open(ctx, "settlements/2026/01/missing.pdf")
	assert.ErrorIs(t, err, settlementdomain.ErrReceiptNotFound)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.pdf", ContentTypePDF, []byte("x"))
	assert.Error(t, err)

	_, err = store.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}

func TestParseGCSRef(t *testing.T) {
	bucket, object, err := parseGCSRef("gs://receipts/settlements/2026/01/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "receipts", bucket)
	assert.Equal(t, "settlements/2026/01/a.pdf", object)

	_, _, err = parseGCSRef("s3://receipts/a.pdf")
	assert.Error(t, err)
	_, _, err = parseGCSRef("gs://receipts")
	assert.Error(t, err)
}
