// Package location_repo implements the location-tree repository with a
// nested-set encoding: ancestor and descendant lookups are single range
// queries over (tree_id, lft, rght).
package location_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/locations"
	"estateops/internal/infrastructure/storage/postgres"
)

const nodesTable = "location_nodes"

// Repo implements locations.Repository.
type Repo struct {
	*postgres.BaseRepo[*locations.LocationNode]
	tm *postgres.TxManager
}

// NewRepo creates the location repository.
func NewRepo(tm *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo[*locations.LocationNode](
			tm, nodesTable, []string{"name"},
			func() *locations.LocationNode { return &locations.LocationNode{} },
		),
		tm: tm,
	}
}

// LockTree serializes structural mutations per tree. The lock is held
// until the surrounding transaction ends.
func (r *Repo) LockTree(ctx context.Context, treeID int64) error {
	if _, err := r.Querier(ctx).Exec(ctx, "SELECT pg_advisory_xact_lock($1)", treeID); err != nil {
		return fmt.Errorf("lock tree %d: %w", treeID, err)
	}
	return nil
}

// InsertRoot stores a project root in a fresh tree with the interval
// [1, 2].
func (r *Repo) InsertRoot(ctx context.Context, node *locations.LocationNode) error {
	if err := r.Querier(ctx).
		QueryRow(ctx, "SELECT nextval('location_tree_seq')").
		Scan(&node.TreeID); err != nil {
		return fmt.Errorf("allocate tree id: %w", err)
	}
	node.Lft = 1
	node.Rght = 2
	return r.Insert(ctx, node)
}

// InsertChild stores node as the rightmost child of parent. The parent's
// current rght is re-read so repeated inserts under the same in-memory
// parent stay correct; intervals at or beyond it shift right by two.
func (r *Repo) InsertChild(ctx context.Context, parent *locations.LocationNode, node *locations.LocationNode) error {
	q := r.Querier(ctx)

	var parentRght int
	if err := q.QueryRow(ctx,
		"SELECT rght FROM location_nodes WHERE id = $1 AND is_deleted = false",
		parent.ID).Scan(&parentRght); err != nil {
		return fmt.Errorf("read parent interval: %w", err)
	}

	if _, err := q.Exec(ctx,
		"UPDATE location_nodes SET rght = rght + 2 WHERE tree_id = $1 AND rght >= $2",
		parent.TreeID, parentRght); err != nil {
		return fmt.Errorf("widen ancestor intervals: %w", err)
	}
	if _, err := q.Exec(ctx,
		"UPDATE location_nodes SET lft = lft + 2 WHERE tree_id = $1 AND lft > $2",
		parent.TreeID, parentRght); err != nil {
		return fmt.Errorf("shift sibling intervals: %w", err)
	}

	node.TreeID = parent.TreeID
	node.Lft = parentRght
	node.Rght = parentRght + 1
	parentID := parent.ID
	node.ParentID = &parentID
	parent.Rght = parentRght + 2

	return r.Insert(ctx, node)
}

// GetNode returns one non-deleted node.
func (r *Repo) GetNode(ctx context.Context, nodeID id.ID) (*locations.LocationNode, error) {
	node, err := r.GetByID(ctx, nodeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("location node", nodeID)
		}
		return nil, err
	}
	return node, nil
}

// GetNodes returns the non-deleted nodes among the given ids.
func (r *Repo) GetNodes(ctx context.Context, nodeIDs []id.ID) ([]*locations.LocationNode, error) {
	var nodes []*locations.LocationNode
	q := r.BaseSelect().
		Where(squirrel.Eq{"id": nodeIDs}).
		Where(squirrel.Eq{"is_deleted": false})
	if err := r.FindMany(ctx, q, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// UpdateNode rewrites one node.
func (r *Repo) UpdateNode(ctx context.Context, node *locations.LocationNode) error {
	return r.Update(ctx, node)
}

// Children returns the non-deleted direct children in lft order.
func (r *Repo) Children(ctx context.Context, parentID id.ID) ([]*locations.LocationNode, error) {
	var nodes []*locations.LocationNode
	q := r.BaseSelect().
		Where(squirrel.Eq{"parent_id": parentID}).
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("lft")
	if err := r.FindMany(ctx, q, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Ancestors returns the chain root..parent in lft order.
func (r *Repo) Ancestors(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error) {
	var nodes []*locations.LocationNode
	q := r.BaseSelect().
		Where(squirrel.Eq{"tree_id": node.TreeID}).
		Where(squirrel.Lt{"lft": node.Lft}).
		Where(squirrel.Gt{"rght": node.Rght}).
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("lft")
	if err := r.FindMany(ctx, q, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Descendants returns every non-deleted node strictly inside the node's
// interval, in lft (preorder) order.
func (r *Repo) Descendants(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error) {
	var nodes []*locations.LocationNode
	q := r.BaseSelect().
		Where(squirrel.Eq{"tree_id": node.TreeID}).
		Where(squirrel.Gt{"lft": node.Lft}).
		Where(squirrel.Lt{"rght": node.Rght}).
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("lft")
	if err := r.FindMany(ctx, q, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// ExistsSiblingName checks name uniqueness among non-deleted siblings of
// the same node type.
func (r *Repo) ExistsSiblingName(ctx context.Context, parentID *id.ID, nodeType locations.NodeType, name string) (bool, error) {
	q := r.Builder().
		Select("1").
		From(nodesTable).
		Where(squirrel.Eq{"name": name}).
		Where(squirrel.Eq{"node_type": nodeType}).
		Where(squirrel.Eq{"is_deleted": false})
	if parentID == nil {
		q = q.Where(squirrel.Eq{"parent_id": nil})
	} else {
		q = q.Where(squirrel.Eq{"parent_id": *parentID})
	}

	innerSQL, innerArgs, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var exists bool
	if err := r.Querier(ctx).
		QueryRow(ctx, "SELECT EXISTS("+innerSQL+")", innerArgs...).
		Scan(&exists); err != nil {
		return false, fmt.Errorf("check sibling name: %w", err)
	}
	return exists, nil
}

// CountChildrenOfTypes counts non-deleted direct children of given types.
func (r *Repo) CountChildrenOfTypes(ctx context.Context, parentID id.ID, types ...locations.NodeType) (int, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(nodesTable).
		Where(squirrel.Eq{"parent_id": parentID}).
		Where(squirrel.Eq{"node_type": types}).
		Where(squirrel.Eq{"is_deleted": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

// SoftDeleteSubtree marks the node and its whole interval deleted. The
// nested-set intervals keep their gaps; rebalancing is unnecessary for
// range queries.
func (r *Repo) SoftDeleteSubtree(ctx context.Context, node *locations.LocationNode) (int64, error) {
	result, err := r.Querier(ctx).Exec(ctx, `
		UPDATE location_nodes
		SET is_deleted = true, updated_at = NOW(), version = version + 1
		WHERE tree_id = $1 AND lft >= $2 AND rght <= $3 AND is_deleted = false`,
		node.TreeID, node.Lft, node.Rght)
	if err != nil {
		return 0, fmt.Errorf("delete subtree: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListRoots lists project roots.
func (r *Repo) ListRoots(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*locations.LocationNode], error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"node_type": locations.NodeProject})
	return r.ListWith(ctx, q, filter)
}
