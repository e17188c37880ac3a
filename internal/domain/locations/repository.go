package locations

import (
	"context"

	"estateops/internal/core/id"
	"estateops/internal/domain"
)

// Repository is the persistence contract for the location tree. The
// nested-set bookkeeping (shifting lft/rght intervals on insert) lives in
// the implementation; callers must hold the tree lock while mutating.
type Repository interface {
	// LockTree takes a transaction-scoped exclusive lock on one tree.
	// Blocks until the lock is granted; released on commit or rollback.
	LockTree(ctx context.Context, treeID int64) error

	// InsertRoot stores node as the root of a fresh tree, allocating
	// tree_id and setting lft=1, rght=2.
	InsertRoot(ctx context.Context, node *LocationNode) error

	// InsertChild stores node as the rightmost child of parent, widening
	// the ancestors' intervals.
	InsertChild(ctx context.Context, parent *LocationNode, node *LocationNode) error

	GetNode(ctx context.Context, nodeID id.ID) (*LocationNode, error)
	GetNodes(ctx context.Context, nodeIDs []id.ID) ([]*LocationNode, error)
	UpdateNode(ctx context.Context, node *LocationNode) error

	// Children returns the non-deleted direct children ordered by lft.
	Children(ctx context.Context, parentID id.ID) ([]*LocationNode, error)

	// Ancestors returns the chain root..parent for the node, ordered by lft.
	Ancestors(ctx context.Context, node *LocationNode) ([]*LocationNode, error)

	// Descendants returns every non-deleted node strictly inside the
	// node's interval, ordered by lft.
	Descendants(ctx context.Context, node *LocationNode) ([]*LocationNode, error)

	// ExistsSiblingName reports whether a non-deleted sibling of the same
	// type under the same parent already carries the name. parentID nil
	// checks roots.
	ExistsSiblingName(ctx context.Context, parentID *id.ID, nodeType NodeType, name string) (bool, error)

	// CountChildrenOfTypes counts non-deleted direct children of the
	// given types.
	CountChildrenOfTypes(ctx context.Context, parentID id.ID, types ...NodeType) (int, error)

	// SoftDeleteSubtree marks the node and all its descendants deleted and
	// returns the number of affected nodes.
	SoftDeleteSubtree(ctx context.Context, node *LocationNode) (int64, error)

	// ListRoots lists project roots.
	ListRoots(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*LocationNode], error)

	// --- Typed details ---

	SaveProjectDetail(ctx context.Context, d *ProjectDetail) error
	GetProjectDetail(ctx context.Context, nodeID id.ID) (*ProjectDetail, error)

	SaveBlockDetail(ctx context.Context, d *BlockDetail) error
	GetBlockDetail(ctx context.Context, nodeID id.ID) (*BlockDetail, error)

	SaveVillaDetail(ctx context.Context, d *VillaDetail) error
	GetVillaDetail(ctx context.Context, nodeID id.ID) (*VillaDetail, error)

	SaveFloorDetail(ctx context.Context, d *FloorDetail) error
	GetFloorDetail(ctx context.Context, nodeID id.ID) (*FloorDetail, error)

	SaveUnitDetail(ctx context.Context, d *UnitDetail) error
	GetUnitDetail(ctx context.Context, nodeID id.ID) (*UnitDetail, error)

	SaveRoomDetail(ctx context.Context, d *RoomDetail) error
	SaveBasementDetail(ctx context.Context, d *BasementDetail) error
	SaveSlotDetail(ctx context.Context, d *SlotDetail) error
}
