package ownership

import (
	"context"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/locations"
)

// Validator checks a proposed (node, owner) assignment against the
// hierarchy rule: no two distinct owners on nodes that are ancestor and
// descendant of each other within one tree.
type Validator struct {
	owners Repository
	tree   TreeReader
	names  PartyDirectory
}

// NewValidator creates the assignment validator.
func NewValidator(owners Repository, tree TreeReader, names PartyDirectory) *Validator {
	return &Validator{owners: owners, tree: tree, names: names}
}

// Validate checks one proposed assignment. When the node already carries
// the identical owner the existing row is returned so the caller can
// treat the assignment as an idempotent no-op; any other collision on the
// node, an ancestor, or a descendant yields an ownership-conflict error.
func (v *Validator) Validate(ctx context.Context, node *locations.LocationNode, owner OwnerRef) (*PropertyOwner, error) {
	// Rule 1: direct conflict.
	existing, err := v.owners.GetOwnerByNode(ctx, node.ID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		if existing.Owner().Equal(owner) {
			return existing, nil
		}
		return nil, v.conflict(ctx, node, existing)
	}

	// Rule 2: ancestor conflict.
	ancestors, err := v.tree.Ancestors(ctx, node)
	if err != nil {
		return nil, err
	}
	if err := v.checkNodes(ctx, ancestors, owner); err != nil {
		return nil, err
	}

	// Rule 3: descendant conflict.
	descendants, err := v.tree.Descendants(ctx, node)
	if err != nil {
		return nil, err
	}
	return nil, v.checkNodes(ctx, descendants, owner)
}

func (v *Validator) checkNodes(ctx context.Context, nodes []*locations.LocationNode, owner OwnerRef) error {
	if len(nodes) == 0 {
		return nil
	}
	ids := make([]id.ID, len(nodes))
	byID := make(map[id.ID]*locations.LocationNode, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		byID[n.ID] = n
	}
	rows, err := v.owners.GetOwnersByNodes(ctx, ids)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if !row.Owner().Equal(owner) {
			return v.conflict(ctx, byID[row.NodeID], row)
		}
	}
	return nil
}

func (v *Validator) conflict(ctx context.Context, node *locations.LocationNode, row *PropertyOwner) error {
	name, err := v.names.OwnerDisplayName(ctx, row.Owner())
	if err != nil {
		name = row.OwnerID.String()
	}
	return apperror.NewOwnershipConflict(node.Name, string(node.NodeType), name)
}
