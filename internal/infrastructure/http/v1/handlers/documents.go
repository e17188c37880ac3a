package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/documents"
	"estateops/internal/infrastructure/http/v1/dto"
)

// Signed uploads are capped at 10 MB.
const maxSignedUploadBytes = 10 << 20

// DocumentsHandler serves templates, offer letters and sales agreements.
type DocumentsHandler struct {
	BaseHandler
	svc *documents.Service
}

func NewDocumentsHandler(svc *documents.Service) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

// CreateTemplate handles POST /documents/templates.
func (h *DocumentsHandler) CreateTemplate(c *gin.Context) {
	var req dto.DocumentTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tmpl, err := h.svc.CreateTemplate(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Template created", dto.FromDocumentTemplate(tmpl, true))
}

// GetTemplate handles GET /documents/templates/:id.
func (h *DocumentsHandler) GetTemplate(c *gin.Context) {
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	tmpl, err := h.svc.GetTemplate(c.Request.Context(), templateID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Template retrieved", dto.FromDocumentTemplate(tmpl, true))
}

// ListTemplates handles GET /documents/templates.
func (h *DocumentsHandler) ListTemplates(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListTemplates(c.Request.Context(), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Templates retrieved", result.TotalCount, dto.FromDocumentTemplates(result.Items))
}

// CreateOffers handles POST /documents/offer-letters. One document per
// (property, buyer) pair, the price split evenly across buyers.
func (h *DocumentsHandler) CreateOffers(c *gin.Context) {
	var req dto.CreateOffersRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	docs, err := h.svc.CreateOfferLetters(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Offer letters created", dto.FromDocuments(docs))
}

// Convert handles POST /documents/convert-to-agreement.
func (h *DocumentsHandler) Convert(c *gin.Context) {
	var req dto.ConvertRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.svc.Convert(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Agreement created", dto.FromDocument(doc))
}

// transitions

// Issue handles POST /documents/:id/issue.
func (h *DocumentsHandler) Issue(c *gin.Context) {
	h.transition(c, "Document issued", h.svc.Issue)
}

// Accept handles POST /documents/:id/accept.
func (h *DocumentsHandler) Accept(c *gin.Context) {
	h.transition(c, "Document accepted", h.svc.Accept)
}

// Reject handles POST /documents/:id/reject.
func (h *DocumentsHandler) Reject(c *gin.Context) {
	h.transition(c, "Document rejected", h.svc.Reject)
}

// Withdraw handles POST /documents/:id/withdraw.
func (h *DocumentsHandler) Withdraw(c *gin.Context) {
	h.transition(c, "Document withdrawn", h.svc.Withdraw)
}

// Submit handles POST /documents/:id/submit.
func (h *DocumentsHandler) Submit(c *gin.Context) {
	h.transition(c, "Agreement submitted", h.svc.SubmitAgreement)
}

// Expire handles POST /documents/:id/expire.
func (h *DocumentsHandler) Expire(c *gin.Context) {
	h.transition(c, "Document expired", h.svc.Expire)
}

func (h *DocumentsHandler) transition(c *gin.Context, message string, fn func(ctx context.Context, documentID id.ID) (*documents.Document, error)) {
	documentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := fn(c.Request.Context(), documentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, message, dto.FromDocument(doc))
}

// Sign handles POST /documents/:id/sign with a multipart file upload.
func (h *DocumentsHandler) Sign(c *gin.Context) {
	documentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("signed file is required"))
		return
	}
	if fileHeader.Size > maxSignedUploadBytes {
		h.Error(c, apperror.NewValidation("signed file too large").
			WithDetail("max_bytes", maxSignedUploadBytes))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSignedUploadBytes))
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	doc, err := h.svc.Sign(c.Request.Context(), documentID, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Document signed", dto.FromDocument(doc))
}

// Get handles GET /documents/:id.
func (h *DocumentsHandler) Get(c *gin.Context) {
	documentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), documentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Document retrieved", dto.FromDocument(doc))
}

// GetFile handles GET /documents/:id/file, streaming the rendered PDF.
func (h *DocumentsHandler) GetFile(c *gin.Context) {
	documentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	data, err := h.svc.GetFile(c.Request.Context(), documentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+documentID.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// List handles GET /documents. The type query parameter narrows to offer
// letters or agreements.
func (h *DocumentsHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.List(c.Request.Context(), documents.DocumentType(c.Query("type")), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Documents retrieved", result.TotalCount, dto.FromDocuments(result.Items))
}

// ListByBuyer handles GET /documents/buyers/:buyerId.
func (h *DocumentsHandler) ListByBuyer(c *gin.Context) {
	buyerID, ok := h.ParseID(c, "buyerId")
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListByBuyer(c.Request.Context(), buyerID, page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Documents retrieved", result.TotalCount, dto.FromDocuments(result.Items))
}
