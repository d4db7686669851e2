package invoices

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

var tolerance = decimal.NewFromFloat(0.02)

func matchedSet(invoiceTotal, poTotal int64) (*models.Invoice, *models.PurchaseOrder, *models.DeliveryReceipt) {
	invoice := &models.Invoice{
		ID:          uuid.New(),
		TotalAmount: decimal.NewFromInt(invoiceTotal),
		LineItems: []models.InvoiceLineItem{
			{Name: "fuel filter", Quantity: 3, UnitPrice: decimal.NewFromInt(invoiceTotal / 3), TotalPrice: decimal.NewFromInt(invoiceTotal)},
		},
	}
	po := &models.PurchaseOrder{
		ID:          uuid.New(),
		TotalAmount: decimal.NewFromInt(poTotal),
		LineItems: []models.POLineItem{
			{Name: "fuel filter", Quantity: 3, UnitPrice: decimal.NewFromInt(poTotal / 3), TotalPrice: decimal.NewFromInt(poTotal)},
		},
	}
	receipt := &models.DeliveryReceipt{
		ID: uuid.New(),
		Lines: []types.ReceiptLine{
			{Name: "fuel filter", OrderedQty: 3, ReceivedQty: 3, Condition: "good"},
		},
	}
	return invoice, po, receipt
}

func TestMatchPassesOnExactAgreement(t *testing.T) {
	invoice, po, receipt := matchedSet(420, 420)

	result := Match(invoice, po, receipt, tolerance)
	if !result.Passed {
		t.Fatalf("expected pass, discrepancies: %v", result.Discrepancies)
	}
	if !result.POMatch || !result.ReceiptMatch {
		t.Fatal("expected both legs to match")
	}
	if !result.PriceVariance.IsZero() {
		t.Fatalf("expected zero variance got %s", result.PriceVariance)
	}
}

func TestMatchPassesWithinTolerance(t *testing.T) {
	// 424 against 420 is just under 1% off.
	invoice, po, receipt := matchedSet(420, 420)
	invoice.TotalAmount = decimal.NewFromInt(424)
	invoice.LineItems[0].TotalPrice = decimal.NewFromInt(424)

	result := Match(invoice, po, receipt, tolerance)
	if !result.Passed {
		t.Fatalf("expected pass within tolerance, discrepancies: %v", result.Discrepancies)
	}
}

func TestMatchFailsOutsideTolerance(t *testing.T) {
	// 450 against 420 is over 7% off.
	invoice, po, receipt := matchedSet(420, 420)
	invoice.TotalAmount = decimal.NewFromInt(450)
	invoice.LineItems[0].TotalPrice = decimal.NewFromInt(450)

	result := Match(invoice, po, receipt, tolerance)
	if result.Passed {
		t.Fatal("expected fail outside tolerance")
	}
	if len(result.Discrepancies) == 0 {
		t.Fatal("expected discrepancies to be reported")
	}
}

func TestMatchFailsUnderBillingOutsideTolerance(t *testing.T) {
	// Direction never matters: under-billing fails the same way.
	invoice, po, receipt := matchedSet(420, 420)
	invoice.TotalAmount = decimal.NewFromInt(390)
	invoice.LineItems[0].TotalPrice = decimal.NewFromInt(390)

	result := Match(invoice, po, receipt, tolerance)
	if result.Passed {
		t.Fatal("expected under-billing to fail")
	}
}

func TestMatchExactlyAtToleranceFails(t *testing.T) {
	// Variance equal to the tolerance is not strictly below it.
	invoice, po, receipt := matchedSet(420, 420)
	invoice.TotalAmount = decimal.NewFromFloat(428.4)
	invoice.LineItems[0].TotalPrice = decimal.NewFromFloat(428.4)

	result := Match(invoice, po, receipt, tolerance)
	if result.Passed {
		t.Fatal("expected variance at tolerance boundary to fail")
	}
}

func TestMatchFailsOnQuantityMismatch(t *testing.T) {
	invoice, po, receipt := matchedSet(420, 420)
	receipt.Lines[0].ReceivedQty = 2

	result := Match(invoice, po, receipt, tolerance)
	if result.ReceiptMatch {
		t.Fatal("expected receipt leg to fail on billed vs received quantity")
	}
	if result.Passed {
		t.Fatal("expected fail")
	}
}

func TestMatchFailsWithoutReceipt(t *testing.T) {
	invoice, po, _ := matchedSet(420, 420)

	result := Match(invoice, po, nil, tolerance)
	if result.ReceiptMatch {
		t.Fatal("expected receipt leg to fail without a receipt")
	}
	if result.Passed {
		t.Fatal("expected fail")
	}
}

func TestMatchFailsOnUnknownInvoicedLine(t *testing.T) {
	invoice, po, receipt := matchedSet(420, 420)
	invoice.LineItems = append(invoice.LineItems, models.InvoiceLineItem{
		Name: "handling surcharge", Quantity: 1, UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(50),
	})

	result := Match(invoice, po, receipt, tolerance)
	if result.POMatch {
		t.Fatal("expected po leg to fail on a line not ordered")
	}
}

func TestMatchZeroPOTotalWithNonZeroInvoice(t *testing.T) {
	invoice, po, receipt := matchedSet(420, 420)
	po.TotalAmount = decimal.Zero

	result := Match(invoice, po, receipt, tolerance)
	if result.Passed {
		t.Fatal("expected maximal variance to fail")
	}
	if !result.PriceVariance.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected variance 1 got %s", result.PriceVariance)
	}
}
