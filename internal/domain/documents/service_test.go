package documents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/parties"
	"estateops/pkg/logger"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDocRepo struct {
	templates map[id.ID]*DocumentTemplate
	documents map[id.ID]*Document
	order     []id.ID
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		templates: make(map[id.ID]*DocumentTemplate),
		documents: make(map[id.ID]*Document),
	}
}

func (r *fakeDocRepo) InsertTemplate(ctx context.Context, t *DocumentTemplate) error {
	r.templates[t.ID] = t
	return nil
}

func (r *fakeDocRepo) UpdateTemplate(ctx context.Context, t *DocumentTemplate) error {
	r.templates[t.ID] = t
	return nil
}

func (r *fakeDocRepo) GetTemplate(ctx context.Context, templateID id.ID) (*DocumentTemplate, error) {
	t, ok := r.templates[templateID]
	if !ok {
		return nil, apperror.NewNotFound("document template", templateID)
	}
	return t, nil
}

func (r *fakeDocRepo) ListTemplates(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*DocumentTemplate], error) {
	out := make([]*DocumentTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	return &domain.ListResult[*DocumentTemplate]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeDocRepo) InsertDocument(ctx context.Context, d *Document) error {
	r.documents[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

func (r *fakeDocRepo) UpdateDocument(ctx context.Context, d *Document) error {
	r.documents[d.ID] = d
	return nil
}

func (r *fakeDocRepo) GetDocument(ctx context.Context, documentID id.ID) (*Document, error) {
	d, ok := r.documents[documentID]
	if !ok {
		return nil, apperror.NewNotFound("document", documentID)
	}
	return d, nil
}

func (r *fakeDocRepo) ListDocuments(ctx context.Context, docType DocumentType, filter domain.ListFilter) (*domain.ListResult[*Document], error) {
	var out []*Document
	for _, docID := range r.order {
		if d := r.documents[docID]; d.DocumentType == docType {
			out = append(out, d)
		}
	}
	return &domain.ListResult[*Document]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeDocRepo) ListDocumentsByBuyer(ctx context.Context, buyerID id.ID, filter domain.ListFilter) (*domain.ListResult[*Document], error) {
	var out []*Document
	for _, docID := range r.order {
		if d := r.documents[docID]; d.BuyerID == buyerID {
			out = append(out, d)
		}
	}
	return &domain.ListResult[*Document]{Items: out, TotalCount: int64(len(out))}, nil
}

type fakePDF struct{}

func (fakePDF) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	return append([]byte("%PDF "), html...), nil
}

type fakeBlobs struct {
	blobs map[string][]byte
}

func (f *fakeBlobs) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.blobs[key] = data
	return nil
}

func (f *fakeBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok := f.blobs[key]
	if !ok {
		return nil, apperror.NewNotFound("blob", key)
	}
	return b, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	delete(f.blobs, key)
	return nil
}

type fakeDocTree struct {
	nodes     map[id.ID]*locations.LocationNode
	ancestors map[id.ID][]*locations.LocationNode
}

func (f *fakeDocTree) GetNode(ctx context.Context, nodeID id.ID) (*locations.LocationNode, error) {
	n, ok := f.nodes[nodeID]
	if !ok {
		return nil, apperror.NewNotFound("location node", nodeID)
	}
	return n, nil
}

func (f *fakeDocTree) Ancestors(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error) {
	return f.ancestors[node.ID], nil
}

type fakeBuyerReader struct {
	users map[id.ID]*parties.User
}

func (f *fakeBuyerReader) GetByID(ctx context.Context, userID id.ID) (*parties.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

type recordingHook struct {
	signed []id.ID
	err    error
}

func (h *recordingHook) OnAgreementSigned(ctx context.Context, doc *Document) error {
	h.signed = append(h.signed, doc.ID)
	return h.err
}

// --- Fixture ---

type docFixture struct {
	svc   *Service
	repo  *fakeDocRepo
	blobs *fakeBlobs
	hook  *recordingHook

	unitID  id.ID
	buyerID id.ID

	offerTmplID     id.ID
	agreementTmplID id.ID
}

func newDocFixture(t *testing.T) *docFixture {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)

	project := &locations.LocationNode{Base: entity.NewBase(), Name: "Riverside Towers", NodeType: locations.NodeProject}
	unit := &locations.LocationNode{Base: entity.NewBase(), Name: "A-101", NodeType: locations.NodeUnit}
	buyer := &parties.User{Base: entity.NewBase(), FirstName: "Jane", LastName: "Mwangi", Email: "jane@example.com", IsActive: true}

	repo := newFakeDocRepo()
	blobs := &fakeBlobs{blobs: make(map[string][]byte)}
	tree := &fakeDocTree{
		nodes:     map[id.ID]*locations.LocationNode{unit.ID: unit, project.ID: project},
		ancestors: map[id.ID][]*locations.LocationNode{unit.ID: {project}},
	}
	buyers := &fakeBuyerReader{users: map[id.ID]*parties.User{buyer.ID: buyer}}

	svc := NewService(repo, fakePDF{}, blobs, tree, buyers, fakeTxManager{}, log)
	hook := &recordingHook{}
	svc.RegisterSignHook(hook)

	offerTmpl := &DocumentTemplate{
		Base:         entity.NewBase(),
		Name:         "Standard Offer",
		DocumentType: OfferLetter,
		IsActive:     true,
		Body:         "Dear {{buyer_name}}, {{property_name}} in {{project_name}} at {{price}}, due {{due_date}}.",
	}
	agreementTmpl := &DocumentTemplate{
		Base:         entity.NewBase(),
		Name:         "Standard Agreement",
		DocumentType: SalesAgreement,
		IsActive:     true,
		Body:         "Agreement for {{property_name}}: {{price}} with {{down_payment}} down.",
	}
	require.NoError(t, repo.InsertTemplate(context.Background(), offerTmpl))
	require.NoError(t, repo.InsertTemplate(context.Background(), agreementTmpl))

	return &docFixture{
		svc: svc, repo: repo, blobs: blobs, hook: hook,
		unitID: unit.ID, buyerID: buyer.ID,
		offerTmplID: offerTmpl.ID, agreementTmplID: agreementTmpl.ID,
	}
}

func (f *docFixture) offersInput() CreateOffersInput {
	return CreateOffersInput{
		PropertyNodeIDs: []id.ID{f.unitID},
		BuyerIDs:        []id.ID{f.buyerID},
		TemplateID:      f.offerTmplID,
		OfferPrice:      types.MustMoney("1000000"),
		DownPayment:     types.MustMoney("200000"),
		DueDate:         time.Now().UTC().AddDate(0, 1, 0),
	}
}

func (f *docFixture) createOffer(t *testing.T) *Document {
	t.Helper()
	docs, err := f.svc.CreateOfferLetters(context.Background(), f.offersInput())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return docs[0]
}

func (f *docFixture) createAgreement(t *testing.T) *Document {
	t.Helper()
	offer := f.createOffer(t)
	agreement, err := f.svc.Convert(context.Background(), ConvertInput{
		OfferLetterID: offer.ID,
		TemplateID:    f.agreementTmplID,
	})
	require.NoError(t, err)
	return agreement
}

// --- Templates ---

func TestCreateTemplate(t *testing.T) {
	f := newDocFixture(t)

	tmpl, err := f.svc.CreateTemplate(context.Background(), CreateTemplateInput{
		Name:         "Reminder",
		DocumentType: OfferLetter,
		Body:         "Dear {{buyer_name}}, your offer expires {{due_date}}.",
	})
	require.NoError(t, err)
	assert.True(t, tmpl.IsActive)
	assert.Equal(t, []string{"buyer_name", "due_date"}, tmpl.Variables())
}

func TestCreateTemplateValidation(t *testing.T) {
	f := newDocFixture(t)

	_, err := f.svc.CreateTemplate(context.Background(), CreateTemplateInput{
		Name: "Broken", DocumentType: "memo", Body: "x",
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

// --- Offer letters ---

func TestCreateOfferLetters(t *testing.T) {
	f := newDocFixture(t)

	offer := f.createOffer(t)
	assert.Equal(t, StatusDraft, offer.Status)
	assert.Equal(t, "1000000.00", offer.Price.StringFixed(2))
	assert.Equal(t, "20.00", offer.DownPaymentPercentage.StringFixed(2))
	assert.False(t, offer.IsSigned)
}

func TestCreateOfferLettersSplitsEvenly(t *testing.T) {
	f := newDocFixture(t)

	second := &parties.User{Base: entity.NewBase(), FirstName: "Peter", LastName: "Otieno", IsActive: true}
	buyers := f.svc.buyers.(*fakeBuyerReader)
	buyers.users[second.ID] = second

	in := f.offersInput()
	in.BuyerIDs = []id.ID{f.buyerID, second.ID}
	docs, err := f.svc.CreateOfferLetters(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "500000.00", docs[0].Price.StringFixed(2))
	assert.Equal(t, "500000.00", docs[1].Price.StringFixed(2))
	assert.Equal(t, "100000.00", docs[0].DownPayment.StringFixed(2))
}

func TestCreateOfferLettersWrongTemplate(t *testing.T) {
	f := newDocFixture(t)

	in := f.offersInput()
	in.TemplateID = f.agreementTmplID
	_, err := f.svc.CreateOfferLetters(context.Background(), in)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateOfferLettersPastDueDate(t *testing.T) {
	f := newDocFixture(t)

	in := f.offersInput()
	in.DueDate = time.Now().UTC().AddDate(0, 0, -1)
	_, err := f.svc.CreateOfferLetters(context.Background(), in)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestIssueRendersPDF(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)

	issued, err := f.svc.Issue(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, issued.Status)
	assert.Contains(t, issued.GeneratedContent, "Jane Mwangi")
	assert.Contains(t, issued.GeneratedContent, "Riverside Towers")
	assert.Contains(t, issued.GeneratedContent, "KES 1,000,000.00")
	require.NotEmpty(t, issued.FileKey)

	pdf, err := f.svc.GetFile(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestOfferLifecycle(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)

	// A draft offer cannot be rejected; it has to be issued first.
	_, err := f.svc.Reject(context.Background(), offer.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, appErr.Code)

	_, err = f.svc.Issue(context.Background(), offer.ID)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	// Rejected is terminal.
	_, err = f.svc.Accept(context.Background(), offer.ID)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, appErr.Code)
}

func TestExpireRequiresOverdueOffer(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)

	_, err := f.svc.Expire(context.Background(), offer.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, appErr.Code)

	// Push the due date into the past; the offer is now expirable.
	offer.DueDate = time.Now().UTC().AddDate(0, 0, -2)
	require.NoError(t, f.repo.UpdateDocument(context.Background(), offer))

	expired, err := f.svc.Expire(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, expired.Status)
}

// --- Conversion ---

func TestConvertOfferToAgreement(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)

	agreement, err := f.svc.Convert(context.Background(), ConvertInput{
		OfferLetterID: offer.ID,
		TemplateID:    f.agreementTmplID,
	})
	require.NoError(t, err)

	assert.Equal(t, SalesAgreement, agreement.DocumentType)
	assert.Equal(t, StatusDraft, agreement.Status)
	assert.Equal(t, offer.Price, agreement.Price)
	assert.Equal(t, offer.DownPayment, agreement.DownPayment)
	require.NotNil(t, agreement.RelatedDocumentID)
	assert.Equal(t, offer.ID, *agreement.RelatedDocumentID)
	assert.Contains(t, agreement.GeneratedContent, "KES 200,000.00")

	got, err := f.svc.Get(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status, "conversion accepts the offer")
}

func TestConvertExpiredOffer(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)
	offer.DueDate = time.Now().UTC().AddDate(0, 0, -2)
	require.NoError(t, f.repo.UpdateDocument(context.Background(), offer))

	_, err := f.svc.Convert(context.Background(), ConvertInput{
		OfferLetterID: offer.ID,
		TemplateID:    f.agreementTmplID,
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	got, err := f.svc.Get(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status, "the failed conversion stamps the expiry")
}

func TestConvertWithWrongTemplate(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)

	_, err := f.svc.Convert(context.Background(), ConvertInput{
		OfferLetterID: offer.ID,
		TemplateID:    f.offerTmplID,
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestConvertNonOffer(t *testing.T) {
	f := newDocFixture(t)
	agreement := f.createAgreement(t)

	_, err := f.svc.Convert(context.Background(), ConvertInput{
		OfferLetterID: agreement.ID,
		TemplateID:    f.agreementTmplID,
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

// --- Signing ---

func TestSignAgreement(t *testing.T) {
	f := newDocFixture(t)
	agreement := f.createAgreement(t)

	_, err := f.svc.SubmitAgreement(context.Background(), agreement.ID)
	require.NoError(t, err)

	signed, err := f.svc.Sign(context.Background(), agreement.ID, []byte("%PDF signed"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, StatusSigned, signed.Status)
	assert.True(t, signed.IsSigned)

	file, err := f.svc.GetFile(context.Background(), agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF signed", string(file))

	assert.Equal(t, []id.ID{agreement.ID}, f.hook.signed)
}

func TestSignReplacesRenderedFile(t *testing.T) {
	f := newDocFixture(t)
	agreement := f.createAgreement(t)
	renderedKey := agreement.FileKey
	require.NotEmpty(t, renderedKey)

	_, err := f.svc.SubmitAgreement(context.Background(), agreement.ID)
	require.NoError(t, err)
	_, err = f.svc.Sign(context.Background(), agreement.ID, []byte("%PDF signed"), "application/pdf")
	require.NoError(t, err)

	_, ok := f.blobs.blobs[renderedKey]
	assert.False(t, ok, "the unsigned render is removed after the swap")
}

func TestSignHookFailureDoesNotPropagate(t *testing.T) {
	f := newDocFixture(t)
	f.hook.err = errors.New("downstream unavailable")
	agreement := f.createAgreement(t)

	_, err := f.svc.SubmitAgreement(context.Background(), agreement.ID)
	require.NoError(t, err)

	signed, err := f.svc.Sign(context.Background(), agreement.ID, []byte("%PDF signed"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, StatusSigned, signed.Status)
}

func TestSignRejectsOfferLetters(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)

	_, err := f.svc.Sign(context.Background(), offer.ID, []byte("%PDF"), "application/pdf")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestSignRequiresPendingAgreement(t *testing.T) {
	f := newDocFixture(t)
	agreement := f.createAgreement(t)

	_, err := f.svc.Sign(context.Background(), agreement.ID, []byte("%PDF"), "application/pdf")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, appErr.Code)
}

// --- Reads ---

func TestGetFileWithoutRender(t *testing.T) {
	f := newDocFixture(t)
	offer := f.createOffer(t)

	_, err := f.svc.GetFile(context.Background(), offer.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListByType(t *testing.T) {
	f := newDocFixture(t)
	f.createAgreement(t) // creates one offer and one agreement

	offers, err := f.svc.List(context.Background(), OfferLetter, domain.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), offers.TotalCount)

	agreements, err := f.svc.List(context.Background(), SalesAgreement, domain.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), agreements.TotalCount)

	_, err = f.svc.List(context.Background(), "memo", domain.ListFilter{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
