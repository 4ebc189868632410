package receipt

import (
	"bytes"
	"fmt"

	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "summary"
	daysSheet    = "days"
	itemsSheet   = "items"
)

// BuildStatementXLSX renders a monthly statement workbook with summary,
// per-day and per-item sheets. Amounts are written as strings to keep
// decimal precision.
func BuildStatementXLSX(view settlementdomain.MonthlyView) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(daysSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	status := ""
	if view.Status != nil {
		status = string(*view.Status)
	}
	payout := ""
	if view.PayoutDate != nil {
		payout = view.PayoutDate.Format("2006-01-02")
	}

	summary := [][2]any{
		{"Settlement Statement", nil},
		{"Store", view.StoreID},
		{"Period", view.Period},
		{"Orders", view.OrderCount},
		{"Supply Amount", formatAmount(view.SupplyAmount)},
		{"Tax Amount", formatAmount(view.TaxAmount)},
		{"Total Amount", formatAmount(view.TotalAmount)},
		{"Commission", formatAmount(view.CommissionAmount)},
		{"Settlement Amount", formatAmount(view.SettlementAmount)},
		{"Status", status},
		{"Payout Date", payout},
	}
	for i, row := range summary {
		r := i + 1
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", r), row[0])
		if row[1] != nil {
			_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", r), row[1])
		}
	}

	_ = f.SetSheetRow(daysSheet, "A1", &[]any{"Date", "Orders", "Supply", "Tax", "Total", "Status"})
	for i, s := range view.Settlements {
		_ = f.SetSheetRow(daysSheet, fmt.Sprintf("A%d", i+2), &[]any{
			s.SettlementDate.Format("2006-01-02"),
			s.OrderCount,
			formatAmount(s.SupplyAmount),
			formatAmount(s.TaxAmount),
			formatAmount(s.TotalSettlementAmount),
			string(s.Status),
		})
	}

	_ = f.SetSheetRow(itemsSheet, "A1", &[]any{"Order", "Product ID", "Product", "Quantity", "Unit Price", "Amount"})
	for i, item := range view.Items {
		_ = f.SetSheetRow(itemsSheet, fmt.Sprintf("A%d", i+2), &[]any{
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			formatAmount(item.UnitPrice),
			formatAmount(item.TotalPrice),
		})
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
