package documents

import (
	"context"
	"strings"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/timex"
	"estateops/internal/core/types"
)

// DocumentType discriminates the two document kinds.
type DocumentType string

const (
	OfferLetter    DocumentType = "offer_letter"
	SalesAgreement DocumentType = "sales_agreement"
)

// Valid reports whether the type is known.
func (t DocumentType) Valid() bool {
	return t == OfferLetter || t == SalesAgreement
}

// DocumentStatus is the document lifecycle state.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusActive    DocumentStatus = "active"
	StatusPending   DocumentStatus = "pending"
	StatusAccepted  DocumentStatus = "accepted"
	StatusRejected  DocumentStatus = "rejected"
	StatusWithdrawn DocumentStatus = "withdrawn"
	StatusExpired   DocumentStatus = "expired"
	StatusSigned    DocumentStatus = "signed"
)

// offerTransitions is the offer-letter state machine. Expiry applies to
// active and pending offers whose due date has passed.
var offerTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:  {StatusActive, StatusExpired},
	StatusActive: {StatusAccepted, StatusRejected, StatusWithdrawn, StatusExpired},
}

// agreementTransitions is the sales-agreement state machine.
var agreementTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:   {StatusPending},
	StatusPending: {StatusSigned, StatusRejected, StatusWithdrawn},
}

// convertibleOfferStatuses are the states from which an offer can be
// promoted to a contract; the promotion moves the offer to accepted
// first.
var convertibleOfferStatuses = map[DocumentStatus]bool{
	StatusDraft:   true,
	StatusActive:  true,
	StatusPending: true,
}

// CanTransition checks a move against the type's state machine.
func CanTransition(docType DocumentType, from, to DocumentStatus) bool {
	table := offerTransitions
	if docType == SalesAgreement {
		table = agreementTransitions
	}
	for _, t := range table[from] {
		if t == to {
			return true
		}
	}
	// Offer acceptance during conversion may start from draft or pending.
	if docType == OfferLetter && to == StatusAccepted {
		return convertibleOfferStatuses[from]
	}
	return false
}

// DocumentTemplate is a reusable document body with {{var}} tokens.
type DocumentTemplate struct {
	entity.Base

	Name         string       `db:"name" json:"name"`
	DocumentType DocumentType `db:"document_type" json:"documentType"`
	Body         string       `db:"body" json:"body"`
	IsActive     bool         `db:"is_active" json:"isActive"`
}

// Validate implements entity.Validatable.
func (t *DocumentTemplate) Validate(ctx context.Context) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !t.DocumentType.Valid() {
		return apperror.NewValidation("unknown document type").
			WithDetail("documentType", string(t.DocumentType))
	}
	if strings.TrimSpace(t.Body) == "" {
		return apperror.NewValidation("template body is required")
	}
	return nil
}

// Variables returns the substitution variables the body uses.
func (t *DocumentTemplate) Variables() []string {
	return ExtractVars(t.Body)
}

// Document is one offer letter or sales agreement bound to a buyer and a
// property node.
type Document struct {
	entity.Base

	DocumentType   DocumentType   `db:"document_type" json:"documentType"`
	Status         DocumentStatus `db:"status" json:"status"`
	BuyerID        id.ID          `db:"buyer_id" json:"buyerId"`
	PropertyNodeID id.ID          `db:"property_node_id" json:"propertyNodeId"`
	TemplateID     id.ID          `db:"template_id" json:"templateId"`

	Price                 types.Money `db:"price" json:"price"`
	DownPayment           types.Money `db:"down_payment" json:"downPayment"`
	DownPaymentPercentage types.Money `db:"down_payment_percentage" json:"downPaymentPercentage"`
	DueDate               time.Time   `db:"due_date" json:"dueDate"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// GeneratedContent is the rendered HTML kept as an audit snapshot.
	GeneratedContent string `db:"generated_content" json:"-"`

	// FileKey references the PDF blob in the object store.
	FileKey string `db:"file_key" json:"fileKey,omitempty"`

	IsSigned bool `db:"is_signed" json:"isSigned"`

	// RelatedDocumentID links a contract back to the offer it came from.
	RelatedDocumentID *id.ID `db:"related_document_id" json:"relatedDocumentId,omitempty"`
}

// Validate implements entity.Validatable. now is injected so expiry and
// due-date checks stay deterministic in tests.
func (d *Document) Validate(ctx context.Context, now time.Time) error {
	if !d.DocumentType.Valid() {
		return apperror.NewValidation("unknown document type").
			WithDetail("documentType", string(d.DocumentType))
	}
	if id.IsNil(d.BuyerID) {
		return apperror.NewValidation("buyer is required")
	}
	if id.IsNil(d.PropertyNodeID) {
		return apperror.NewValidation("property is required")
	}
	if !d.Price.IsPositive() {
		return apperror.NewValidation("price is required").WithDetail("field", "price")
	}
	if d.DownPayment.IsNegative() || d.DownPayment.GreaterThan(d.Price) {
		return apperror.NewValidation("down payment must be between 0 and the price")
	}
	if !timex.DateOnly(d.DueDate).After(timex.DateOnly(now)) {
		return apperror.NewValidation("due date must be in the future").
			WithDetail("dueDate", d.DueDate.Format("2006-01-02"))
	}
	return nil
}

// IsExpired reports whether an unresolved offer has passed its due date.
func (d *Document) IsExpired(now time.Time) bool {
	if d.DocumentType != OfferLetter {
		return false
	}
	switch d.Status {
	case StatusActive, StatusPending, StatusDraft:
		return timex.DateOnly(d.DueDate).Before(timex.DateOnly(now))
	}
	return false
}
