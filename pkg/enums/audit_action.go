package enums

// AuditAction tags what happened on an audit trail entry. The set is open
// (new workflow steps add tags), so there is no Parse helper.
type AuditAction string

const (
	AuditActionCreated           AuditAction = "CREATED"
	AuditActionSubmitted         AuditAction = "SUBMITTED"
	AuditActionApproved          AuditAction = "APPROVED"
	AuditActionRejected          AuditAction = "REJECTED"
	AuditActionCancelled         AuditAction = "CANCELLED"
	AuditActionEmergencyOverride AuditAction = "EMERGENCY_OVERRIDE"
	AuditActionOfflineSynced     AuditAction = "OFFLINE_SYNCED"
	AuditActionRFQIssued         AuditAction = "RFQ_ISSUED"
	AuditActionQuoteSubmitted    AuditAction = "QUOTE_SUBMITTED"
	AuditActionQuoteSelected     AuditAction = "QUOTE_SELECTED"
	AuditActionPOGenerated       AuditAction = "PO_GENERATED"
	AuditActionPOApproved        AuditAction = "PO_APPROVED"
	AuditActionDeliveryConfirmed AuditAction = "DELIVERY_CONFIRMED"
	AuditActionReceiptConfirmed  AuditAction = "RECEIPT_CONFIRMED"
	AuditActionDelivered         AuditAction = "DELIVERED"
	AuditActionInvoiceSubmitted  AuditAction = "INVOICE_SUBMITTED"
	AuditActionThreeWayMatched   AuditAction = "THREE_WAY_MATCHED"
	AuditActionInvoiceDisputed   AuditAction = "INVOICE_DISPUTED"
	AuditActionPaymentApproved   AuditAction = "PAYMENT_APPROVED"
	AuditActionClosed            AuditAction = "CLOSED"
	AuditActionDelegationCreated AuditAction = "DELEGATION_CREATED"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}
