package documents

import (
	"context"
	"fmt"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/timex"
	"estateops/internal/core/tx"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/parties"
	"estateops/pkg/logger"
)

// Repository is the persistence contract for templates and documents.
type Repository interface {
	InsertTemplate(ctx context.Context, t *DocumentTemplate) error
	UpdateTemplate(ctx context.Context, t *DocumentTemplate) error
	GetTemplate(ctx context.Context, templateID id.ID) (*DocumentTemplate, error)
	ListTemplates(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*DocumentTemplate], error)

	InsertDocument(ctx context.Context, d *Document) error
	UpdateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, documentID id.ID) (*Document, error)
	ListDocuments(ctx context.Context, docType DocumentType, filter domain.ListFilter) (*domain.ListResult[*Document], error)
	ListDocumentsByBuyer(ctx context.Context, buyerID id.ID, filter domain.ListFilter) (*domain.ListResult[*Document], error)
}

// PDFRenderer converts rendered HTML into PDF bytes. Stateless; the
// Gotenberg client implements it.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// BlobStore holds the document files. Keys are opaque to this package.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// TreeReader resolves property nodes and their project ancestors for the
// fact map.
type TreeReader interface {
	GetNode(ctx context.Context, nodeID id.ID) (*locations.LocationNode, error)
	Ancestors(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error)
}

// BuyerReader resolves buyers for the fact map.
type BuyerReader interface {
	GetByID(ctx context.Context, userID id.ID) (*parties.User, error)
}

// SignHook runs after a sales agreement is signed, outside the signing
// transaction. Hook failures are logged, not propagated.
type SignHook interface {
	OnAgreementSigned(ctx context.Context, doc *Document) error
}

// Service implements the document engine.
type Service struct {
	repo      Repository
	pdf       PDFRenderer
	blobs     BlobStore
	tree      TreeReader
	buyers    BuyerReader
	txManager tx.Manager
	log       *logger.Logger
	signHooks []SignHook
}

// NewService creates the document service.
func NewService(repo Repository, pdf PDFRenderer, blobs BlobStore, tree TreeReader, buyers BuyerReader, txManager tx.Manager, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		pdf:       pdf,
		blobs:     blobs,
		tree:      tree,
		buyers:    buyers,
		txManager: txManager,
		log:       log.WithComponent("documents.service"),
	}
}

// RegisterSignHook attaches a post-sign hook. Not safe for concurrent use;
// call during wiring.
func (s *Service) RegisterSignHook(h SignHook) {
	s.signHooks = append(s.signHooks, h)
}

// --- Templates ---

// CreateTemplateInput carries a new template body.
type CreateTemplateInput struct {
	Name         string
	DocumentType DocumentType
	Body         string
}

// CreateTemplate stores a document template.
func (s *Service) CreateTemplate(ctx context.Context, in CreateTemplateInput) (*DocumentTemplate, error) {
	t := &DocumentTemplate{
		Base:         entity.NewBase(),
		Name:         in.Name,
		DocumentType: in.DocumentType,
		Body:         in.Body,
		IsActive:     true,
	}
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.InsertTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTemplate returns one template.
func (s *Service) GetTemplate(ctx context.Context, templateID id.ID) (*DocumentTemplate, error) {
	return s.repo.GetTemplate(ctx, templateID)
}

// ListTemplates lists templates.
func (s *Service) ListTemplates(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*DocumentTemplate], error) {
	return s.repo.ListTemplates(ctx, filter)
}

// --- Offer letters ---

// CreateOffersInput creates offer letters for every buyer × property
// combination.
type CreateOffersInput struct {
	PropertyNodeIDs []id.ID
	BuyerIDs        []id.ID
	TemplateID      id.ID
	OfferPrice      types.Money
	DownPayment     types.Money
	DueDate         time.Time
	Notes           string
}

// CreateOfferLetters writes one draft offer letter per (buyer, property)
// combination. The offer price and down payment are distributed equally
// across the rows, the rounding residual landing on the last one.
func (s *Service) CreateOfferLetters(ctx context.Context, in CreateOffersInput) ([]*Document, error) {
	if len(in.PropertyNodeIDs) == 0 {
		return nil, apperror.NewValidation("at least one property is required")
	}
	if len(in.BuyerIDs) == 0 {
		return nil, apperror.NewValidation("at least one buyer is required")
	}

	var created []*Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tmpl, err := s.repo.GetTemplate(ctx, in.TemplateID)
		if err != nil {
			return err
		}
		if tmpl.DocumentType != OfferLetter {
			return apperror.NewValidation("template is not an offer-letter template")
		}
		for _, nodeID := range in.PropertyNodeIDs {
			if _, err := s.tree.GetNode(ctx, nodeID); err != nil {
				return err
			}
		}
		for _, buyerID := range in.BuyerIDs {
			if _, err := s.buyers.GetByID(ctx, buyerID); err != nil {
				return err
			}
		}

		rows := len(in.PropertyNodeIDs) * len(in.BuyerIDs)
		prices := types.SplitEven(in.OfferPrice, rows)
		downs := types.SplitEven(in.DownPayment, rows)
		now := time.Now().UTC()

		created = created[:0]
		i := 0
		for _, nodeID := range in.PropertyNodeIDs {
			for _, buyerID := range in.BuyerIDs {
				doc := &Document{
					Base:                  entity.NewBase(),
					DocumentType:          OfferLetter,
					Status:                StatusDraft,
					BuyerID:               buyerID,
					PropertyNodeID:        nodeID,
					TemplateID:            in.TemplateID,
					Price:                 prices[i],
					DownPayment:           downs[i],
					DownPaymentPercentage: types.RatioPercent(downs[i], prices[i]),
					DueDate:               timex.DateOnly(in.DueDate),
					Notes:                 in.Notes,
				}
				if err := doc.Validate(ctx, now); err != nil {
					return err
				}
				if err := s.repo.InsertDocument(ctx, doc); err != nil {
					return err
				}
				created = append(created, doc)
				i++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Infow("offer letters created", "count", len(created))
	return created, nil
}

// Issue activates a draft offer letter and renders its PDF.
func (s *Service) Issue(ctx context.Context, documentID id.ID) (*Document, error) {
	doc, err := s.transition(ctx, documentID, StatusActive)
	if err != nil {
		return nil, err
	}
	if err := s.renderAndStore(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Accept marks an offer accepted.
func (s *Service) Accept(ctx context.Context, documentID id.ID) (*Document, error) {
	return s.transition(ctx, documentID, StatusAccepted)
}

// Reject marks a document rejected.
func (s *Service) Reject(ctx context.Context, documentID id.ID) (*Document, error) {
	return s.transition(ctx, documentID, StatusRejected)
}

// Withdraw marks a document withdrawn.
func (s *Service) Withdraw(ctx context.Context, documentID id.ID) (*Document, error) {
	return s.transition(ctx, documentID, StatusWithdrawn)
}

// SubmitAgreement moves a draft agreement to pending signature.
func (s *Service) SubmitAgreement(ctx context.Context, documentID id.ID) (*Document, error) {
	return s.transition(ctx, documentID, StatusPending)
}

// Expire marks an overdue offer expired. Calling it on an offer that has
// not passed its due date is an invalid transition.
func (s *Service) Expire(ctx context.Context, documentID id.ID) (*Document, error) {
	var doc *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if !doc.IsExpired(time.Now().UTC()) {
			return apperror.NewInvalidStatusTransition(string(doc.DocumentType), string(doc.Status), string(StatusExpired))
		}
		doc.Status = StatusExpired
		doc.Touch()
		return s.repo.UpdateDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) transition(ctx context.Context, documentID id.ID, next DocumentStatus) (*Document, error) {
	var doc *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if !CanTransition(doc.DocumentType, doc.Status, next) {
			return apperror.NewInvalidStatusTransition(string(doc.DocumentType), string(doc.Status), string(next))
		}
		doc.Status = next
		doc.Touch()
		return s.repo.UpdateDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// --- Conversion ---

// ConvertInput promotes an offer letter into a draft sales agreement.
type ConvertInput struct {
	OfferLetterID  id.ID
	TemplateID     id.ID
	Notes          string
	VariableValues map[string]any
}

// Convert accepts the offer and creates a draft sales agreement that
// inherits the offer's financial terms and links back to it. The
// agreement PDF is rendered immediately.
func (s *Service) Convert(ctx context.Context, in ConvertInput) (*Document, error) {
	var agreement *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		offer, err := s.repo.GetDocument(ctx, in.OfferLetterID)
		if err != nil {
			return err
		}
		if offer.DocumentType != OfferLetter {
			return apperror.NewValidation("document is not an offer letter")
		}
		if offer.IsExpired(time.Now().UTC()) {
			offer.Status = StatusExpired
			offer.Touch()
			if err := s.repo.UpdateDocument(ctx, offer); err != nil {
				return err
			}
			return apperror.NewStateConflict("offer letter has expired and cannot be converted")
		}
		if !convertibleOfferStatuses[offer.Status] {
			return apperror.NewStateConflict(
				fmt.Sprintf("offer letter in status %s cannot be converted", offer.Status))
		}
		tmpl, err := s.repo.GetTemplate(ctx, in.TemplateID)
		if err != nil {
			return err
		}
		if tmpl.DocumentType != SalesAgreement {
			return apperror.NewValidation("template is not a sales-agreement template")
		}

		offer.Status = StatusAccepted
		offer.Touch()
		if err := s.repo.UpdateDocument(ctx, offer); err != nil {
			return err
		}

		offerID := offer.ID
		agreement = &Document{
			Base:                  entity.NewBase(),
			DocumentType:          SalesAgreement,
			Status:                StatusDraft,
			BuyerID:               offer.BuyerID,
			PropertyNodeID:        offer.PropertyNodeID,
			TemplateID:            in.TemplateID,
			Price:                 offer.Price,
			DownPayment:           offer.DownPayment,
			DownPaymentPercentage: offer.DownPaymentPercentage,
			DueDate:               offer.DueDate,
			Notes:                 in.Notes,
			RelatedDocumentID:     &offerID,
		}
		return s.repo.InsertDocument(ctx, agreement)
	})
	if err != nil {
		return nil, err
	}

	if err := s.renderAndStoreWith(ctx, agreement, in.VariableValues); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infow("offer converted",
		"offer_id", in.OfferLetterID, "agreement_id", agreement.ID)
	return agreement, nil
}

// --- Rendering ---

// renderAndStore renders the document against its template with the
// standard fact map.
func (s *Service) renderAndStore(ctx context.Context, doc *Document) error {
	return s.renderAndStoreWith(ctx, doc, nil)
}

// renderAndStoreWith renders HTML, converts it to PDF, stages the blob,
// and only then swaps the document's file reference. The prior blob is
// deleted after the swap is durable.
func (s *Service) renderAndStoreWith(ctx context.Context, doc *Document, overrides map[string]any) error {
	tmpl, err := s.repo.GetTemplate(ctx, doc.TemplateID)
	if err != nil {
		return err
	}
	facts, err := s.buildFacts(ctx, doc)
	if err != nil {
		return err
	}
	for k, v := range overrides {
		facts[k] = v
	}

	html, err := Render(tmpl.Body, FilterFacts(tmpl.Body, facts))
	if err != nil {
		return err
	}
	pdf, err := s.pdf.RenderPDF(ctx, html)
	if err != nil {
		return err
	}

	newKey := fmt.Sprintf("documents/%s/%s.pdf", doc.ID, id.New())
	if err := s.blobs.Put(ctx, newKey, pdf, "application/pdf"); err != nil {
		return err
	}

	oldKey := doc.FileKey
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc.GeneratedContent = html
		doc.FileKey = newKey
		doc.Touch()
		return s.repo.UpdateDocument(ctx, doc)
	})
	if err != nil {
		// The staged blob is orphaned; remove it.
		if delErr := s.blobs.Delete(ctx, newKey); delErr != nil {
			s.log.WithContext(ctx).Warnw("failed to remove staged blob", "key", newKey, "error", delErr)
		}
		return err
	}
	if oldKey != "" {
		if delErr := s.blobs.Delete(ctx, oldKey); delErr != nil {
			s.log.WithContext(ctx).Warnw("failed to remove replaced blob", "key", oldKey, "error", delErr)
		}
	}
	return nil
}

// buildFacts assembles the rendering context: buyer, property, project
// ancestor, financial terms and dates. Monetary display values are KES
// formatted; *_value variants stay numeric for conditions.
func (s *Service) buildFacts(ctx context.Context, doc *Document) (map[string]any, error) {
	buyer, err := s.buyers.GetByID(ctx, doc.BuyerID)
	if err != nil {
		return nil, err
	}
	node, err := s.tree.GetNode(ctx, doc.PropertyNodeID)
	if err != nil {
		return nil, err
	}
	projectName := node.Name
	ancestors, err := s.tree.Ancestors(ctx, node)
	if err != nil {
		return nil, err
	}
	if len(ancestors) > 0 {
		projectName = ancestors[0].Name
	}

	price, _ := doc.Price.Float64()
	down, _ := doc.DownPayment.Float64()
	return map[string]any{
		"buyer_name":              buyer.FullName(),
		"buyer_email":             buyer.Email,
		"buyer_phone":             buyer.Phone,
		"property_name":           node.Name,
		"property_type":           string(node.NodeType),
		"project_name":            projectName,
		"price":                   types.FormatKES(doc.Price),
		"price_value":             price,
		"down_payment":            types.FormatKES(doc.DownPayment),
		"down_payment_value":      down,
		"down_payment_percentage": doc.DownPaymentPercentage.StringFixed(2),
		"due_date":                timex.DateOnly(doc.DueDate).Format("2006-01-02"),
		"agreement_date":          timex.DateOnly(time.Now().UTC()).Format("2006-01-02"),
		"notes":                   doc.Notes,
	}, nil
}

// --- Signing ---

// Sign stores an uploaded signed file on a pending agreement: the blob is
// staged first, the reference swap and status change commit together, and
// the replaced blob is deleted afterwards. Post-sign hooks run last.
func (s *Service) Sign(ctx context.Context, documentID id.ID, file []byte, contentType string) (*Document, error) {
	if len(file) == 0 {
		return nil, apperror.NewValidation("signed file is required")
	}

	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.DocumentType != SalesAgreement {
		return nil, apperror.NewValidation("only sales agreements can be signed")
	}
	if !CanTransition(SalesAgreement, doc.Status, StatusSigned) {
		return nil, apperror.NewInvalidStatusTransition(string(doc.DocumentType), string(doc.Status), string(StatusSigned))
	}

	newKey := fmt.Sprintf("documents/%s/signed-%s.pdf", doc.ID, id.New())
	if err := s.blobs.Put(ctx, newKey, file, contentType); err != nil {
		return nil, err
	}

	oldKey := doc.FileKey
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc.Status = StatusSigned
		doc.IsSigned = true
		doc.FileKey = newKey
		doc.Touch()
		return s.repo.UpdateDocument(ctx, doc)
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, newKey); delErr != nil {
			s.log.WithContext(ctx).Warnw("failed to remove staged blob", "key", newKey, "error", delErr)
		}
		return nil, err
	}
	if oldKey != "" {
		if delErr := s.blobs.Delete(ctx, oldKey); delErr != nil {
			s.log.WithContext(ctx).Warnw("failed to remove replaced blob", "key", oldKey, "error", delErr)
		}
	}

	for _, h := range s.signHooks {
		if hookErr := h.OnAgreementSigned(ctx, doc); hookErr != nil {
			s.log.WithContext(ctx).Errorw("post-sign hook failed",
				"document_id", doc.ID, "error", hookErr)
		}
	}
	return doc, nil
}

// --- Reads ---

// Get returns one document.
func (s *Service) Get(ctx context.Context, documentID id.ID) (*Document, error) {
	return s.repo.GetDocument(ctx, documentID)
}

// GetFile returns the document's stored PDF.
func (s *Service) GetFile(ctx context.Context, documentID id.ID) ([]byte, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.FileKey == "" {
		return nil, apperror.NewNotFound("document file", documentID)
	}
	return s.blobs.Get(ctx, doc.FileKey)
}

// List lists documents of one type.
func (s *Service) List(ctx context.Context, docType DocumentType, filter domain.ListFilter) (*domain.ListResult[*Document], error) {
	if !docType.Valid() {
		return nil, apperror.NewValidation("unknown document type").WithDetail("documentType", string(docType))
	}
	return s.repo.ListDocuments(ctx, docType, filter)
}

// ListByBuyer lists a buyer's documents.
func (s *Service) ListByBuyer(ctx context.Context, buyerID id.ID, filter domain.ListFilter) (*domain.ListResult[*Document], error) {
	return s.repo.ListDocumentsByBuyer(ctx, buyerID, filter)
}
