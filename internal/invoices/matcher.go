package invoices

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

// Match reconciles invoice, purchase order, and delivery receipt. The run
// passes only when the line totals agree within tolerance, the billed
// quantities equal the received quantities, and the overall price variance
// is strictly below the tolerance fraction. Direction never matters: over-
// and under-billing outside tolerance both fail.
func Match(invoice *models.Invoice, po *models.PurchaseOrder, receipt *models.DeliveryReceipt, tolerance decimal.Decimal) types.MatchResult {
	result := types.MatchResult{Tolerance: tolerance}

	result.POMatch = matchLineTotals(&result, invoice, po, tolerance)
	result.ReceiptMatch = matchQuantities(&result, invoice, receipt)
	result.PriceVariance = priceVariance(invoice.TotalAmount, po.TotalAmount)

	if result.PriceVariance.GreaterThanOrEqual(tolerance) {
		result.Discrepancies = append(result.Discrepancies,
			fmt.Sprintf("price variance %s exceeds tolerance %s", result.PriceVariance.StringFixed(4), tolerance.String()))
	}

	result.Passed = result.POMatch && result.ReceiptMatch && result.PriceVariance.LessThan(tolerance)
	return result
}

func matchLineTotals(result *types.MatchResult, invoice *models.Invoice, po *models.PurchaseOrder, tolerance decimal.Decimal) bool {
	poByName := map[string]models.POLineItem{}
	for _, line := range po.LineItems {
		poByName[line.Name] = line
	}

	ok := true
	for _, line := range invoice.LineItems {
		poLine, found := poByName[line.Name]
		if !found {
			ok = false
			result.Discrepancies = append(result.Discrepancies,
				fmt.Sprintf("invoiced line %q not on purchase order", line.Name))
			continue
		}
		if !withinTolerance(line.TotalPrice, poLine.TotalPrice, tolerance) {
			ok = false
			result.Discrepancies = append(result.Discrepancies,
				fmt.Sprintf("line %q billed %s against ordered %s", line.Name, line.TotalPrice, poLine.TotalPrice))
		}
	}
	return ok
}

func matchQuantities(result *types.MatchResult, invoice *models.Invoice, receipt *models.DeliveryReceipt) bool {
	if receipt == nil {
		result.Discrepancies = append(result.Discrepancies, "no receipt confirmation recorded")
		return false
	}

	receivedByName := map[string]int{}
	for _, line := range receipt.Lines {
		receivedByName[line.Name] = line.ReceivedQty
	}

	ok := true
	for _, line := range invoice.LineItems {
		received, found := receivedByName[line.Name]
		if !found {
			ok = false
			result.Discrepancies = append(result.Discrepancies,
				fmt.Sprintf("invoiced line %q has no receipt record", line.Name))
			continue
		}
		if line.Quantity != received {
			ok = false
			result.Discrepancies = append(result.Discrepancies,
				fmt.Sprintf("line %q billed qty %d against received %d", line.Name, line.Quantity, received))
		}
	}
	return ok
}

// priceVariance is |invoice - po| / po. A zero PO total with a non-zero
// invoice is treated as maximal variance.
func priceVariance(invoiceTotal, poTotal decimal.Decimal) decimal.Decimal {
	if poTotal.IsZero() {
		if invoiceTotal.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(1)
	}
	return invoiceTotal.Sub(poTotal).Abs().Div(poTotal)
}

func withinTolerance(actual, expected, tolerance decimal.Decimal) bool {
	if expected.IsZero() {
		return actual.IsZero()
	}
	return actual.Sub(expected).Abs().Div(expected).LessThan(tolerance)
}
