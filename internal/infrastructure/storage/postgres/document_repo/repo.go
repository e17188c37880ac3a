// Package document_repo persists document templates and generated
// documents.
package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/documents"
	"estateops/internal/infrastructure/storage/postgres"
)

const (
	templatesTable = "document_templates"
	documentsTable = "documents"
)

// Repo implements documents.Repository.
type Repo struct {
	templates *postgres.BaseRepo[*documents.DocumentTemplate]
	docs      *postgres.BaseRepo[*documents.Document]
}

// NewRepo creates the document repository.
func NewRepo(tm *postgres.TxManager) *Repo {
	return &Repo{
		templates: postgres.NewBaseRepo[*documents.DocumentTemplate](
			tm, templatesTable, []string{"name"},
			func() *documents.DocumentTemplate { return &documents.DocumentTemplate{} },
		),
		docs: postgres.NewBaseRepo[*documents.Document](
			tm, documentsTable, []string{"notes"},
			func() *documents.Document { return &documents.Document{} },
		),
	}
}

func (r *Repo) InsertTemplate(ctx context.Context, t *documents.DocumentTemplate) error {
	return r.templates.Insert(ctx, t)
}

func (r *Repo) UpdateTemplate(ctx context.Context, t *documents.DocumentTemplate) error {
	return r.templates.Update(ctx, t)
}

func (r *Repo) GetTemplate(ctx context.Context, templateID id.ID) (*documents.DocumentTemplate, error) {
	t, err := r.templates.GetByID(ctx, templateID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("document template", templateID)
		}
		return nil, err
	}
	return t, nil
}

func (r *Repo) ListTemplates(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*documents.DocumentTemplate], error) {
	return r.templates.List(ctx, filter)
}

func (r *Repo) InsertDocument(ctx context.Context, d *documents.Document) error {
	return r.docs.Insert(ctx, d)
}

func (r *Repo) UpdateDocument(ctx context.Context, d *documents.Document) error {
	return r.docs.Update(ctx, d)
}

func (r *Repo) GetDocument(ctx context.Context, documentID id.ID) (*documents.Document, error) {
	d, err := r.docs.GetByID(ctx, documentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("document", documentID)
		}
		return nil, err
	}
	return d, nil
}

func (r *Repo) ListDocuments(ctx context.Context, docType documents.DocumentType, filter domain.ListFilter) (*domain.ListResult[*documents.Document], error) {
	q := r.docs.BaseSelect().
		Where(squirrel.Eq{"document_type": docType})
	return r.docs.ListWith(ctx, q, filter)
}

func (r *Repo) ListDocumentsByBuyer(ctx context.Context, buyerID id.ID, filter domain.ListFilter) (*domain.ListResult[*documents.Document], error) {
	q := r.docs.BaseSelect().
		Where(squirrel.Eq{"buyer_id": buyerID})
	return r.docs.ListWith(ctx, q, filter)
}
