package receipt

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
)

// RenderReceiptPDF draws a daily settlement receipt.
func RenderReceiptPDF(doc settlementdomain.ReceiptDocument) ([]byte, error) {
	m := newDocument()

	m.AddRow(20,
		text.NewCol(8, "Settlement Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, doc.PeriodLabel, props.Text{
			Size:  12,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New(fmt.Sprintf("Store: %d", doc.StoreID), props.Text{Top: 0}),
			text.New(fmt.Sprintf("Orders: %d", doc.OrderCount), props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Generated: "+doc.GeneratedAt.Format("2006-01-02 15:04:05 MST"), props.Text{Align: align.Right}),
		),
	)

	addItemsTable(m, doc.Items)
	addTotals(m, doc.SupplyAmount, doc.TaxAmount, doc.TotalAmount, doc.CommissionAmount, doc.SettlementAmount)

	return generate(m)
}

// RenderMonthlyPDF draws a monthly statement with one row per settlement day.
func RenderMonthlyPDF(view settlementdomain.MonthlyView) ([]byte, error) {
	m := newDocument()

	m.AddRow(20,
		text.NewCol(8, "Monthly Settlement Statement", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
		}),
		text.NewCol(4, view.Period, props.Text{Size: 12, Align: align.Right, Top: 4}),
	)

	status := "-"
	if view.Status != nil {
		status = string(*view.Status)
	}
	payout := "-"
	if view.PayoutDate != nil {
		payout = view.PayoutDate.Format("2006-01-02")
	}
	m.AddRow(16,
		col.New(6).Add(
			text.New(fmt.Sprintf("Store: %d", view.StoreID)),
			text.New(fmt.Sprintf("Orders: %d", view.OrderCount), props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Status: "+status, props.Text{Align: align.Right}),
			text.New("Payout date: "+payout, props.Text{Align: align.Right, Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Orders", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Supply", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Tax", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, s := range view.Settlements {
		m.AddRow(8,
			text.NewCol(3, s.SettlementDate.Format("2006-01-02"), props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", s.OrderCount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(s.SupplyAmount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(s.TaxAmount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, formatAmount(s.TotalSettlementAmount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	addTotals(m, view.SupplyAmount, view.TaxAmount, view.TotalAmount, view.CommissionAmount, view.SettlementAmount)

	return generate(m)
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func addItemsTable(m core.Maroto, items []settlementdomain.SettlementItem) {
	m.AddRow(10,
		text.NewCol(6, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range items {
		name := item.ProductName
		if name == "" {
			name = fmt.Sprintf("Product #%d", item.ProductID)
		}
		m.AddRow(8,
			text.NewCol(6, name, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.TotalPrice), props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func addTotals(m core.Maroto, supply, tax, total, commission, net decimal.Decimal) {
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Supply amount", supply},
		{"Tax amount", tax},
		{"Total", total},
		{"Commission", commission},
		{"Settlement amount", net},
	}
	for _, r := range rows {
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, r.label, props.Text{Size: 9}),
			text.NewCol(2, formatAmount(r.value), props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
