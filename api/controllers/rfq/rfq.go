package rfq

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/api/middleware"
	"github.com/harborops/seaprocure-backend/api/responses"
	"github.com/harborops/seaprocure-backend/api/validators"
	internalrfq "github.com/harborops/seaprocure-backend/internal/rfq"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/logger"
)

// GetByRequisition returns the RFQ issued for a requisition.
func GetByRequisition(svc internalrfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "requisitionId"))
		requisitionID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid requisition id"))
			return
		}

		rfq, err := svc.GetByRequisition(r.Context(), requisitionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rfq)
	}
}

// ListQuotes returns every quote submitted against an RFQ.
func ListQuotes(svc internalrfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		rfqID, err := parseRFQID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quotes, err := svc.ListQuotes(r.Context(), rfqID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quotes)
	}
}

type quoteLineRequest struct {
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

type submitQuoteRequest struct {
	VendorID     string             `json:"vendor_id" validate:"required,uuid4"`
	LineItems    []quoteLineRequest `json:"line_items" validate:"required,min=1,dive"`
	Currency     string             `json:"currency,omitempty"`
	LeadTimeDays int                `json:"lead_time_days,omitempty"`
	NetDays      int                `json:"net_days,omitempty"`
	Terms        *string            `json:"terms,omitempty"`
}

// SubmitQuote records a vendor quote against an open RFQ.
func SubmitQuote(svc internalrfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rfqID, err := parseRFQID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

		lines := make([]internalrfq.QuoteLineInput, 0, len(payload.LineItems))
		for _, line := range payload.LineItems {
			lines = append(lines, internalrfq.QuoteLineInput{
				Name:      line.Name,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		quote, err := svc.SubmitQuote(r.Context(), internalrfq.SubmitQuoteInput{
			RFQID:        rfqID,
			VendorID:     vendorID,
			LineItems:    lines,
			Currency:     currency,
			LeadTimeDays: payload.LeadTimeDays,
			NetDays:      payload.NetDays,
			Terms:        payload.Terms,
			Actor:        actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

type selectQuoteRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SelectQuote marks one quote as the winner and rejects its siblings.
func SelectQuote(svc internalrfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "quoteId"))
		quoteID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote id"))
			return
		}

		var payload selectQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.SelectQuote(r.Context(), internalrfq.SelectQuoteInput{
			QuoteID: quoteID,
			Reason:  payload.Reason,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func parseRFQID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "rfqId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "rfq id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rfq id")
	}
	return id, nil
}
