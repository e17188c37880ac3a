package ownership

import (
	"context"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/tx"
	"estateops/internal/domain"
	"estateops/internal/domain/locations"
	"estateops/pkg/logger"
)

// Service implements owner and tenant assignment.
type Service struct {
	repo      Repository
	tree      TreeReader
	validator *Validator
	txManager tx.Manager
	log       *logger.Logger
}

// NewService creates the ownership service.
func NewService(repo Repository, tree TreeReader, validator *Validator, txManager tx.Manager, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		tree:      tree,
		validator: validator,
		txManager: txManager,
		log:       log.WithComponent("ownership.service"),
	}
}

// AssignInput carries one owner assignment.
type AssignInput struct {
	NodeID    id.ID
	Owner     OwnerRef
	StartDate time.Time
	Notes     string
}

// Assign gives a node to an owning party. Assigning the identical owner
// again returns the existing row unchanged.
func (s *Service) Assign(ctx context.Context, in AssignInput) (*PropertyOwner, error) {
	if err := in.Owner.Validate(); err != nil {
		return nil, err
	}

	var row *PropertyOwner
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		node, err := s.tree.GetNode(ctx, in.NodeID)
		if err != nil {
			return err
		}
		existing, err := s.validator.Validate(ctx, node, in.Owner)
		if err != nil {
			return err
		}
		if existing != nil {
			row = existing
			return nil
		}
		row = s.newRow(in)
		return s.repo.InsertOwner(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// BulkTarget identifies one node of a bulk assignment. Only houses and
// units are assignable in bulk.
type BulkTarget struct {
	NodeType locations.NodeType `json:"type"`
	NodeID   id.ID              `json:"id"`
}

// BulkAssign assigns one owner to a set of houses and units under a
// project, all-or-nothing. When any pair fails validation, nothing is
// written and the returned error lists the per-pair failures.
func (s *Service) BulkAssign(ctx context.Context, projectID id.ID, owner OwnerRef, targets []BulkTarget, startDate time.Time) ([]*PropertyOwner, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, apperror.NewValidation("at least one property is required")
	}

	var created []*PropertyOwner
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		project, err := s.tree.GetNode(ctx, projectID)
		if err != nil {
			return err
		}
		if project.NodeType != locations.NodeProject {
			return apperror.NewValidation("owners are assigned under a project").
				WithDetail("nodeType", string(project.NodeType))
		}

		created = created[:0]
		var pairErrors []map[string]any
		var pending []AssignInput
		for _, t := range targets {
			if err := s.validateTarget(ctx, project, t, owner); err != nil {
				appErr, _ := apperror.AsAppError(err)
				if appErr == nil {
					return err
				}
				pairErrors = append(pairErrors, map[string]any{
					"node_id": t.NodeID,
					"code":    appErr.Code,
					"message": appErr.Message,
				})
				continue
			}
			pending = append(pending, AssignInput{NodeID: t.NodeID, Owner: owner, StartDate: startDate})
		}
		if len(pairErrors) > 0 {
			return apperror.NewValidation("one or more assignments failed").
				WithDetail("errors", pairErrors)
		}
		for _, in := range pending {
			row := s.newRow(in)
			if err := s.repo.InsertOwner(ctx, row); err != nil {
				return err
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Infow("bulk owner assignment",
		"project_id", projectID, "assigned", len(created))
	return created, nil
}

// validateTarget checks one bulk pair: assignable type, membership in the
// project subtree, and the hierarchy rule. Identical existing owners are
// accepted silently.
func (s *Service) validateTarget(ctx context.Context, project *locations.LocationNode, t BulkTarget, owner OwnerRef) error {
	if t.NodeType != locations.NodeHouse && t.NodeType != locations.NodeUnit {
		return apperror.NewValidation("only houses and units can be assigned").
			WithDetail("type", string(t.NodeType))
	}
	node, err := s.tree.GetNode(ctx, t.NodeID)
	if err != nil {
		return err
	}
	if node.NodeType != t.NodeType {
		return apperror.NewValidation("node type mismatch").
			WithDetail("expected", string(t.NodeType)).
			WithDetail("actual", string(node.NodeType))
	}
	if !node.IsDescendantOf(project) {
		return apperror.NewValidation("property does not belong to the project").
			WithDetail("node_id", t.NodeID)
	}
	_, err = s.validator.Validate(ctx, node, owner)
	return err
}

// Revoke removes the owner row outright so the node can be reassigned.
// Revoking a node without an owner is a 404 with no side effects.
func (s *Service) Revoke(ctx context.Context, nodeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		deleted, err := s.repo.HardDeleteOwnerByNode(ctx, nodeID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperror.NewNotFound("property owner", nodeID)
		}
		s.log.WithContext(ctx).Infow("owner revoked", "node_id", nodeID)
		return nil
	})
}

// GetOwner returns the owner row for a node.
func (s *Service) GetOwner(ctx context.Context, nodeID id.ID) (*PropertyOwner, error) {
	return s.repo.GetOwnerByNode(ctx, nodeID)
}

// ListByOwner lists the properties a party owns.
func (s *Service) ListByOwner(ctx context.Context, owner OwnerRef, filter domain.ListFilter) (*domain.ListResult[*PropertyOwner], error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, owner, filter)
}

func (s *Service) newRow(in AssignInput) *PropertyOwner {
	start := in.StartDate
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &PropertyOwner{
		Base:      entity.NewBase(),
		NodeID:    in.NodeID,
		OwnerType: in.Owner.Type,
		OwnerID:   in.Owner.ID,
		StartDate: start,
		Notes:     in.Notes,
	}
}

// --- Tenancy ---

// AssignTenantInput carries one tenancy assignment.
type AssignTenantInput struct {
	NodeID     id.ID
	TenantID   id.ID
	LeaseStart time.Time
	LeaseEnd   *time.Time
	Notes      string
}

// AssignTenant places a tenant on a unit. A unit holds at most one active
// tenant; occupied units are rejected. The unit status flips to rented.
func (s *Service) AssignTenant(ctx context.Context, in AssignTenantInput) (*PropertyTenant, error) {
	row := &PropertyTenant{
		Base:       entity.NewBase(),
		NodeID:     in.NodeID,
		TenantID:   in.TenantID,
		LeaseStart: in.LeaseStart,
		LeaseEnd:   in.LeaseEnd,
		Notes:      in.Notes,
	}
	if row.LeaseStart.IsZero() {
		row.LeaseStart = time.Now().UTC()
	}
	if err := row.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		node, err := s.tree.GetNode(ctx, in.NodeID)
		if err != nil {
			return err
		}
		if node.NodeType != locations.NodeUnit {
			return apperror.NewValidation("tenants are assigned to units").
				WithDetail("nodeType", string(node.NodeType))
		}
		existing, err := s.repo.GetTenantByNode(ctx, in.NodeID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewStateConflict("unit already has an active tenant").
				WithDetail("tenant_id", existing.TenantID)
		}
		if err := s.repo.InsertTenant(ctx, row); err != nil {
			return err
		}
		detail, err := s.tree.GetUnitDetail(ctx, in.NodeID)
		if err != nil {
			return err
		}
		detail.Status = locations.UnitRented
		return s.tree.SaveUnitDetail(ctx, detail)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ReleaseTenant ends a tenancy and frees the unit.
func (s *Service) ReleaseTenant(ctx context.Context, nodeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.repo.GetTenantByNode(ctx, nodeID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		row.LeaseEnd = &now
		row.MarkDeleted()
		if err := s.repo.UpdateTenant(ctx, row); err != nil {
			return err
		}
		detail, err := s.tree.GetUnitDetail(ctx, nodeID)
		if err != nil {
			return err
		}
		detail.Status = locations.UnitAvailable
		return s.tree.SaveUnitDetail(ctx, detail)
	})
}
