package types

import "github.com/shopspring/decimal"

// PaymentTerms is the maritime payment template applied to a purchase
// order, parameterized by the winning quote's negotiated terms.
type PaymentTerms struct {
	// Payment falls due only after on-board inspection of the goods.
	InspectionContingent bool `json:"inspection_contingent"`
	// Banking charges outside the seller's country are borne by the buyer.
	BuyerBankChargesAbroad bool            `json:"buyer_bank_charges_abroad"`
	NetDays                int             `json:"net_days"`
	LatePenaltyRatePct     decimal.Decimal `json:"late_penalty_rate_pct"`
	RetentionPct           decimal.Decimal `json:"retention_pct"`
	RetentionDays          int             `json:"retention_days"`
	Notes                  string          `json:"notes,omitempty"`
}
