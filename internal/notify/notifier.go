package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/logger"
)

// VendorNotifier delivers best-effort vendor-facing messages. Failures never
// roll back the workflow transition that triggered them; callers surface
// them as warnings on the response.
type VendorNotifier interface {
	NotifyRFQIssued(ctx context.Context, rfq *models.RFQ, vendorList []models.Vendor) error
	NotifyPOSent(ctx context.Context, po *models.PurchaseOrder) error
}

type publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) error
}

type pubsubNotifier struct {
	pub   publisher
	topic string
	logg  *logger.Logger
}

// NewPubSubNotifier builds a Pub/Sub backed vendor notifier.
func NewPubSubNotifier(pub publisher, cfg config.PubSubConfig, logg *logger.Logger) (VendorNotifier, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	if cfg.VendorTopic == "" {
		return nil, fmt.Errorf("vendor topic required")
	}
	return &pubsubNotifier{pub: pub, topic: cfg.VendorTopic, logg: logg}, nil
}

type rfqIssuedMessage struct {
	RFQID         string    `json:"rfq_id"`
	RequisitionID string    `json:"requisition_id"`
	VendorID      string    `json:"vendor_id"`
	VendorEmail   string    `json:"vendor_email"`
	UrgencyLevel  string    `json:"urgency_level"`
	Deadline      time.Time `json:"deadline"`
}

type poSentMessage struct {
	PurchaseOrderID string `json:"purchase_order_id"`
	PONumber        string `json:"po_number"`
	VendorID        string `json:"vendor_id"`
	TotalAmount     string `json:"total_amount"`
	Currency        string `json:"currency"`
}

// NotifyRFQIssued publishes one message per vendor and aggregates failures
// so one bad delivery does not hide the rest.
func (n *pubsubNotifier) NotifyRFQIssued(ctx context.Context, rfq *models.RFQ, vendorList []models.Vendor) error {
	var errs error
	for _, vendor := range vendorList {
		msg := rfqIssuedMessage{
			RFQID:         rfq.ID.String(),
			RequisitionID: rfq.RequisitionID.String(),
			VendorID:      vendor.ID.String(),
			VendorEmail:   vendor.Email,
			UrgencyLevel:  rfq.UrgencyLevel.String(),
			Deadline:      rfq.Deadline,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("encode rfq message for vendor %s: %w", vendor.ID, err))
			continue
		}
		attrs := map[string]string{
			"event":     "rfq.issued",
			"vendor_id": vendor.ID.String(),
		}
		if err := n.pub.Publish(ctx, n.topic, data, attrs); err != nil {
			if n.logg != nil {
				n.logg.Warn(n.logg.WithField(ctx, "vendor_id", vendor.ID.String()), "rfq notification failed")
			}
			errs = multierr.Append(errs, fmt.Errorf("notify vendor %s: %w", vendor.ID, err))
		}
	}
	return errs
}

func (n *pubsubNotifier) NotifyPOSent(ctx context.Context, po *models.PurchaseOrder) error {
	msg := poSentMessage{
		PurchaseOrderID: po.ID.String(),
		PONumber:        po.PONumber,
		VendorID:        po.VendorID.String(),
		TotalAmount:     po.TotalAmount.String(),
		Currency:        po.Currency.String(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode po message: %w", err)
	}
	attrs := map[string]string{
		"event":     "po.sent",
		"vendor_id": po.VendorID.String(),
	}
	if err := n.pub.Publish(ctx, n.topic, data, attrs); err != nil {
		if n.logg != nil {
			n.logg.Warn(n.logg.WithField(ctx, "po_number", po.PONumber), "po notification failed")
		}
		return fmt.Errorf("notify vendor %s: %w", po.VendorID, err)
	}
	return nil
}
