package types

import "github.com/shopspring/decimal"

// MatchResult is the persisted breakdown of a three-way match run.
type MatchResult struct {
	POMatch       bool            `json:"po_match"`
	ReceiptMatch  bool            `json:"receipt_match"`
	PriceVariance decimal.Decimal `json:"price_variance"`
	Tolerance     decimal.Decimal `json:"tolerance"`
	Passed        bool            `json:"passed"`
	Discrepancies []string        `json:"discrepancies,omitempty"`
}

// ReceiptLine records what the crew counted against one ordered line.
// Received quantity may legitimately differ from ordered quantity; a short
// shipment is recorded here, never silently reconciled.
type ReceiptLine struct {
	Name        string `json:"name"`
	OrderedQty  int    `json:"ordered_qty"`
	ReceivedQty int    `json:"received_qty"`
	Condition   string `json:"condition,omitempty"`
}
