package purchaseorders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/api/middleware"
	"github.com/harborops/seaprocure-backend/api/responses"
	"github.com/harborops/seaprocure-backend/api/validators"
	internalpos "github.com/harborops/seaprocure-backend/internal/purchaseorders"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/logger"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

type generateRequest struct {
	QuoteID      string           `json:"quote_id" validate:"required,uuid4"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}

// Generate creates the purchase order for a selected quote. A replay for the
// same quote returns the existing order.
func Generate(svc internalpos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase orders service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := uuid.Parse(strings.TrimSpace(payload.QuoteID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote id"))
			return
		}

		input := internalpos.GenerateInput{
			QuoteID: quoteID,
			Notes:   payload.Notes,
			Actor:   actor,
		}
		if payload.ExchangeRate != nil {
			input.ExchangeRate = *payload.ExchangeRate
		}

		result, err := svc.Generate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if !result.Created {
			status = http.StatusOK
		}
		responses.WriteSuccessWarnings(w, status, result, result.Warnings)
	}
}

// Get returns one purchase order with its lines and receipt.
func Get(svc internalpos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase orders service unavailable"))
			return
		}

		id, err := parsePurchaseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Approve releases a high-value draft order to the vendor.
func Approve(svc internalpos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase orders service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parsePurchaseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, warnings, err := svc.Approve(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessWarnings(w, http.StatusOK, order, warnings)
	}
}

// ConfirmDelivery records the vendor-side delivery confirmation.
func ConfirmDelivery(svc internalpos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase orders service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parsePurchaseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmDelivery(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type receiptLineRequest struct {
	Name        string `json:"name" validate:"required"`
	OrderedQty  int    `json:"ordered_qty" validate:"required,gt=0"`
	ReceivedQty int    `json:"received_qty"`
	Condition   string `json:"condition,omitempty"`
}

type confirmReceiptRequest struct {
	Condition string               `json:"condition" validate:"required"`
	Lines     []receiptLineRequest `json:"lines" validate:"required,min=1,dive"`
	Notes     *string              `json:"notes,omitempty"`
}

// ConfirmReceipt records the crew-side receipt count. Short shipments are
// recorded as counted for the three-way match to flag later.
func ConfirmReceipt(svc internalpos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase orders service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parsePurchaseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmReceiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]types.ReceiptLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, types.ReceiptLine{
				Name:        line.Name,
				OrderedQty:  line.OrderedQty,
				ReceivedQty: line.ReceivedQty,
				Condition:   line.Condition,
			})
		}

		order, err := svc.ConfirmReceipt(r.Context(), internalpos.ReceiptInput{
			PurchaseOrderID: id,
			Condition:       payload.Condition,
			Lines:           lines,
			Notes:           payload.Notes,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func parsePurchaseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "purchaseOrderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase order id")
	}
	return id, nil
}
