package invoices

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/api/middleware"
	"github.com/harborops/seaprocure-backend/api/responses"
	"github.com/harborops/seaprocure-backend/api/validators"
	internalinvoices "github.com/harborops/seaprocure-backend/internal/invoices"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/logger"
)

type invoiceLineRequest struct {
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

type submitRequest struct {
	PurchaseOrderID string               `json:"purchase_order_id" validate:"required,uuid4"`
	VendorID        string               `json:"vendor_id" validate:"required,uuid4"`
	InvoiceNumber   string               `json:"invoice_number" validate:"required"`
	LineItems       []invoiceLineRequest `json:"line_items" validate:"required,min=1,dive"`
	Currency        string               `json:"currency,omitempty"`
}

// Submit records a vendor invoice against a delivered purchase order.
func Submit(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchaseOrderID, err := uuid.Parse(strings.TrimSpace(payload.PurchaseOrderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase order id"))
			return
		}
		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
			return
		}

		currency := enums.Currency("")
		if raw := strings.TrimSpace(payload.Currency); raw != "" {
			currency, err = enums.ParseCurrency(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
				return
			}
		}

		lines := make([]internalinvoices.LineInput, 0, len(payload.LineItems))
		for _, line := range payload.LineItems {
			lines = append(lines, internalinvoices.LineInput{
				Name:      line.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		invoice, err := svc.Submit(r.Context(), internalinvoices.SubmitInput{
			PurchaseOrderID: purchaseOrderID,
			VendorID:        vendorID,
			InvoiceNumber:   payload.InvoiceNumber,
			LineItems:       lines,
			Currency:        currency,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// Get returns one invoice with its line items.
func Get(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		id, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// Match runs the three-way match between invoice, purchase order, and
// delivery receipt and records the outcome.
func Match(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.Match(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// ApprovePayment releases a matched invoice for payment and closes the
// purchase order.
func ApprovePayment(svc internalinvoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.ApproveForPayment(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

func parseInvoiceID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "invoiceId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id")
	}
	return id, nil
}
