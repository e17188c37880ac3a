package dto

import (
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain/documents"
)

// DocumentTemplateRequest creates a document template.
type DocumentTemplateRequest struct {
	Name         string `json:"name" binding:"required"`
	DocumentType string `json:"documentType" binding:"required"`
	Body         string `json:"body" binding:"required"`
}

// ToInput maps the request.
func (r DocumentTemplateRequest) ToInput() documents.CreateTemplateInput {
	return documents.CreateTemplateInput{
		Name:         r.Name,
		DocumentType: documents.DocumentType(r.DocumentType),
		Body:         r.Body,
	}
}

// CreateOffersRequest creates offer letters for buyers × properties.
type CreateOffersRequest struct {
	PropertyNodeIDs []string  `json:"propertyNodeIds" binding:"required,min=1"`
	BuyerIDs        []string  `json:"buyerIds" binding:"required,min=1"`
	TemplateID      string    `json:"templateId" binding:"required,uuid"`
	OfferPrice      string    `json:"offerPrice" binding:"required"`
	DownPayment     string    `json:"downPayment"`
	DueDate         time.Time `json:"dueDate" binding:"required"`
	Notes           string    `json:"notes"`
}

// ToInput parses the request.
func (r CreateOffersRequest) ToInput() (documents.CreateOffersInput, error) {
	var in documents.CreateOffersInput
	var err error

	for _, s := range r.PropertyNodeIDs {
		nodeID, err := id.Parse(s)
		if err != nil {
			return in, apperror.NewValidation("invalid property node id").WithDetail("id", s)
		}
		in.PropertyNodeIDs = append(in.PropertyNodeIDs, nodeID)
	}
	for _, s := range r.BuyerIDs {
		buyerID, err := id.Parse(s)
		if err != nil {
			return in, apperror.NewValidation("invalid buyer id").WithDetail("id", s)
		}
		in.BuyerIDs = append(in.BuyerIDs, buyerID)
	}
	if in.TemplateID, err = id.Parse(r.TemplateID); err != nil {
		return in, apperror.NewValidation("invalid template id").WithDetail("id", r.TemplateID)
	}
	if in.OfferPrice, err = types.NewMoneyFromString(r.OfferPrice); err != nil {
		return in, apperror.NewValidation("invalid offer price").WithDetail("offerPrice", r.OfferPrice)
	}
	if r.DownPayment != "" {
		if in.DownPayment, err = types.NewMoneyFromString(r.DownPayment); err != nil {
			return in, apperror.NewValidation("invalid down payment").WithDetail("downPayment", r.DownPayment)
		}
	}
	in.DueDate = r.DueDate
	in.Notes = r.Notes
	return in, nil
}

// ConvertRequest converts an accepted offer to a sales agreement.
type ConvertRequest struct {
	OfferLetterID  string         `json:"offerLetterId" binding:"required,uuid"`
	TemplateID     string         `json:"templateId" binding:"required,uuid"`
	Notes          string         `json:"notes"`
	VariableValues map[string]any `json:"variableValues"`
}

// ToInput parses the request.
func (r ConvertRequest) ToInput() (documents.ConvertInput, error) {
	var in documents.ConvertInput
	var err error
	if in.OfferLetterID, err = id.Parse(r.OfferLetterID); err != nil {
		return in, apperror.NewValidation("invalid offer letter id").WithDetail("id", r.OfferLetterID)
	}
	if in.TemplateID, err = id.Parse(r.TemplateID); err != nil {
		return in, apperror.NewValidation("invalid template id").WithDetail("id", r.TemplateID)
	}
	in.Notes = r.Notes
	in.VariableValues = r.VariableValues
	return in, nil
}

// DocumentTemplateResponse is one stored template.
type DocumentTemplateResponse struct {
	ID           id.ID    `json:"id"`
	Name         string   `json:"name"`
	DocumentType string   `json:"documentType"`
	Body         string   `json:"body,omitempty"`
	Variables    []string `json:"variables"`
	IsActive     bool     `json:"isActive"`
}

// FromDocumentTemplate maps one template. withBody controls whether the
// full body travels with list responses.
func FromDocumentTemplate(t *documents.DocumentTemplate, withBody bool) DocumentTemplateResponse {
	resp := DocumentTemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		DocumentType: string(t.DocumentType),
		Variables:    t.Variables(),
		IsActive:     t.IsActive,
	}
	if withBody {
		resp.Body = t.Body
	}
	return resp
}

// FromDocumentTemplates maps a template slice, never returning nil.
func FromDocumentTemplates(ts []*documents.DocumentTemplate) []DocumentTemplateResponse {
	out := make([]DocumentTemplateResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, FromDocumentTemplate(t, false))
	}
	return out
}

// DocumentResponse is one offer letter or sales agreement.
type DocumentResponse struct {
	ID                    id.ID      `json:"id"`
	DocumentType          string     `json:"documentType"`
	Status                string     `json:"status"`
	BuyerID               id.ID      `json:"buyerId"`
	PropertyNodeID        id.ID      `json:"propertyNodeId"`
	TemplateID            id.ID      `json:"templateId"`
	Price                 MoneyField `json:"price"`
	DownPayment           MoneyField `json:"downPayment"`
	DownPaymentPercentage string     `json:"downPaymentPercentage"`
	DueDate               string     `json:"dueDate"`
	Notes                 string     `json:"notes,omitempty"`
	IsSigned              bool       `json:"isSigned"`
	RelatedDocumentID     *id.ID     `json:"relatedDocumentId,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// FromDocument maps one document.
func FromDocument(d *documents.Document) DocumentResponse {
	return DocumentResponse{
		ID:                    d.ID,
		DocumentType:          string(d.DocumentType),
		Status:                string(d.Status),
		BuyerID:               d.BuyerID,
		PropertyNodeID:        d.PropertyNodeID,
		TemplateID:            d.TemplateID,
		Price:                 NewMoneyField(d.Price),
		DownPayment:           NewMoneyField(d.DownPayment),
		DownPaymentPercentage: d.DownPaymentPercentage.StringFixed(2),
		DueDate:               DateString(d.DueDate),
		Notes:                 d.Notes,
		IsSigned:              d.IsSigned,
		RelatedDocumentID:     d.RelatedDocumentID,
		CreatedAt:             d.CreatedAt,
	}
}

// FromDocuments maps a document slice, never returning nil.
func FromDocuments(ds []*documents.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, FromDocument(d))
	}
	return out
}
