package locations

import (
	"context"
	"fmt"
	"strings"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/tx"
	"estateops/internal/domain"
	"estateops/pkg/logger"
)

// Service implements the location-tree use cases.
type Service struct {
	repo      Repository
	txManager tx.Manager
	log       *logger.Logger
}

// NewService creates the location service.
func NewService(repo Repository, txManager tx.Manager, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		log:       log.WithComponent("locations.service"),
	}
}

// CreateProjectInput carries the fields for a new project root.
type CreateProjectInput struct {
	Name         string
	PropertyType PropertyType
	Address      string
	City         string
	Description  string
}

// CreateProject creates a project root in its own tree.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*LocationNode, error) {
	pt := in.PropertyType
	node := &LocationNode{
		Base:         entity.NewBase(),
		Name:         strings.TrimSpace(in.Name),
		NodeType:     NodeProject,
		PropertyType: &pt,
	}
	if err := node.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsSiblingName(ctx, nil, NodeProject, node.Name)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewDuplicate("project", "name", node.Name)
		}
		if err := s.repo.InsertRoot(ctx, node); err != nil {
			return err
		}
		return s.repo.SaveProjectDetail(ctx, &ProjectDetail{
			NodeID:      node.ID,
			Address:     strings.TrimSpace(in.Address),
			City:        strings.TrimSpace(in.City),
			Description: in.Description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Infow("project created", "node_id", node.ID, "name", node.Name)
	return node, nil
}

// CreateChildInput carries the common fields for a new non-root node.
// Detail fields are read depending on NodeType.
type CreateChildInput struct {
	ParentID id.ID
	NodeType NodeType
	Name     string

	PropertyType *PropertyType

	// Blocks, villas: number of floors to create up front.
	FloorCount int

	// Basements: number of parking slots to create up front.
	SlotCount int

	// Units.
	UnitStatus     UnitStatus
	ManagementMode ManagementMode
	SizeSqM        *float64
	Bedrooms       *int
}

// CreateChild creates a node under an existing parent, enforcing the
// hierarchy table and sibling-name uniqueness. Blocks and villas get
// their floors created in the same transaction ("Floor 0".."Floor N-1"),
// basements get their slots.
func (s *Service) CreateChild(ctx context.Context, in CreateChildInput) (*LocationNode, error) {
	if in.NodeType == NodeProject {
		return nil, apperror.NewValidation("projects are roots; use the project endpoint")
	}

	parentID := in.ParentID
	node := &LocationNode{
		Base:         entity.NewBase(),
		Name:         strings.TrimSpace(in.Name),
		NodeType:     in.NodeType,
		ParentID:     &parentID,
		PropertyType: in.PropertyType,
	}
	if err := node.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		parent, err := s.repo.GetNode(ctx, in.ParentID)
		if err != nil {
			return err
		}
		if err := s.repo.LockTree(ctx, parent.TreeID); err != nil {
			return err
		}
		if !in.NodeType.CanChildOf(parent.NodeType) {
			return apperror.NewInvalidHierarchy(string(in.NodeType), string(parent.NodeType))
		}
		exists, err := s.repo.ExistsSiblingName(ctx, &parent.ID, in.NodeType, node.Name)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewDuplicate(strings.ToLower(string(in.NodeType)), "name", node.Name)
		}
		if err := s.repo.InsertChild(ctx, parent, node); err != nil {
			return err
		}
		return s.createDetails(ctx, node, in)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Infow("node created",
		"node_id", node.ID, "type", node.NodeType, "parent_id", in.ParentID)
	return node, nil
}

func (s *Service) createDetails(ctx context.Context, node *LocationNode, in CreateChildInput) error {
	switch node.NodeType {
	case NodeBlock:
		if in.FloorCount < 0 {
			return apperror.NewValidation("floorCount must not be negative")
		}
		if err := s.repo.SaveBlockDetail(ctx, &BlockDetail{NodeID: node.ID, FloorCount: in.FloorCount}); err != nil {
			return err
		}
		return s.createFloors(ctx, node, 0, in.FloorCount)

	case NodeHouse:
		if in.FloorCount < 0 {
			return apperror.NewValidation("floorCount must not be negative")
		}
		if err := s.repo.SaveVillaDetail(ctx, &VillaDetail{NodeID: node.ID, FloorCount: in.FloorCount}); err != nil {
			return err
		}
		return s.createFloors(ctx, node, 0, in.FloorCount)

	case NodeFloor:
		// Explicit floor creation is reserved for AddFloors, which keeps
		// the numbering consistent.
		return apperror.NewValidation("floors are managed through the block floor endpoints")

	case NodeUnit:
		status := in.UnitStatus
		if status == "" {
			status = UnitAvailable
		}
		mode := in.ManagementMode
		if mode == "" {
			mode = ServiceOnly
		}
		if !validUnitStatus(status) {
			return apperror.NewValidation("unknown unit status").WithDetail("status", string(status))
		}
		if mode != ServiceOnly && mode != FullManagement {
			return apperror.NewValidation("unknown management mode").WithDetail("managementMode", string(mode))
		}
		return s.repo.SaveUnitDetail(ctx, &UnitDetail{
			NodeID:         node.ID,
			Status:         status,
			ManagementMode: mode,
			SizeSqM:        in.SizeSqM,
			Bedrooms:       in.Bedrooms,
		})

	case NodeRoom:
		return s.repo.SaveRoomDetail(ctx, &RoomDetail{NodeID: node.ID, SizeSqM: in.SizeSqM})

	case NodeBasement:
		if in.SlotCount < 0 {
			return apperror.NewValidation("slotCount must not be negative")
		}
		if err := s.repo.SaveBasementDetail(ctx, &BasementDetail{NodeID: node.ID, SlotCount: in.SlotCount}); err != nil {
			return err
		}
		for i := 1; i <= in.SlotCount; i++ {
			slot := &LocationNode{
				Base:     entity.NewBase(),
				Name:     fmt.Sprintf("Slot %d", i),
				NodeType: NodeSlot,
				ParentID: &node.ID,
			}
			if err := s.repo.InsertChild(ctx, node, slot); err != nil {
				return err
			}
			if err := s.repo.SaveSlotDetail(ctx, &SlotDetail{NodeID: slot.ID, Code: fmt.Sprintf("S%d", i)}); err != nil {
				return err
			}
		}
		return nil

	case NodeSlot:
		return s.repo.SaveSlotDetail(ctx, &SlotDetail{NodeID: node.ID, Code: node.Name})
	}
	return nil
}

// createFloors appends count floors numbered from start under the parent.
func (s *Service) createFloors(ctx context.Context, parent *LocationNode, start, count int) error {
	for i := start; i < start+count; i++ {
		floor := &LocationNode{
			Base:     entity.NewBase(),
			Name:     FloorName(i),
			NodeType: NodeFloor,
			ParentID: &parent.ID,
		}
		if err := s.repo.InsertChild(ctx, parent, floor); err != nil {
			return err
		}
		if err := s.repo.SaveFloorDetail(ctx, &FloorDetail{NodeID: floor.ID, Number: i}); err != nil {
			return err
		}
	}
	return nil
}

// AddFloors appends count floors to a block or villa, continuing the
// numbering from the current floor count.
func (s *Service) AddFloors(ctx context.Context, containerID id.ID, count int) ([]*LocationNode, error) {
	if count <= 0 {
		return nil, apperror.NewValidation("count must be positive")
	}

	var created []*LocationNode
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		container, current, err := s.lockedFloorContainer(ctx, containerID)
		if err != nil {
			return err
		}
		if err := s.createFloors(ctx, container, current, count); err != nil {
			return err
		}
		if err := s.saveFloorCount(ctx, container, current+count); err != nil {
			return err
		}
		floors, err := s.floorsOf(ctx, container)
		if err != nil {
			return err
		}
		created = floors[len(floors)-count:]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AdjustFloorCount grows or shrinks a block or villa to the target floor
// count. Shrinking removes the highest-numbered floors and fails with
// FLOOR_NOT_EMPTY if any floor to be removed still has units or rooms.
func (s *Service) AdjustFloorCount(ctx context.Context, containerID id.ID, target int) error {
	if target < 0 {
		return apperror.NewValidation("floorCount must not be negative")
	}

	return s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		container, current, err := s.lockedFloorContainer(ctx, containerID)
		if err != nil {
			return err
		}
		switch {
		case target == current:
			return nil
		case target > current:
			if err := s.createFloors(ctx, container, current, target-current); err != nil {
				return err
			}
		default:
			floors, err := s.floorsOf(ctx, container)
			if err != nil {
				return err
			}
			doomed := floors[target:]
			for _, f := range doomed {
				n, err := s.repo.CountChildrenOfTypes(ctx, f.ID, NodeUnit, NodeRoom)
				if err != nil {
					return err
				}
				if n > 0 {
					return apperror.NewFloorNotEmpty(f.Name)
				}
			}
			for _, f := range doomed {
				if _, err := s.repo.SoftDeleteSubtree(ctx, f); err != nil {
					return err
				}
			}
		}
		return s.saveFloorCount(ctx, container, target)
	})
}

// DeleteNode soft-deletes a node and its whole subtree. A floor can only
// be deleted when it has no units or rooms; the remaining floors of its
// container are then renumbered 0..N-1.
func (s *Service) DeleteNode(ctx context.Context, nodeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		node, err := s.repo.GetNode(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := s.repo.LockTree(ctx, node.TreeID); err != nil {
			return err
		}

		if node.NodeType == NodeFloor {
			n, err := s.repo.CountChildrenOfTypes(ctx, node.ID, NodeUnit, NodeRoom)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperror.NewFloorNotEmpty(node.Name)
			}
		}

		affected, err := s.repo.SoftDeleteSubtree(ctx, node)
		if err != nil {
			return err
		}

		if node.NodeType == NodeFloor && node.ParentID != nil {
			container, err := s.repo.GetNode(ctx, *node.ParentID)
			if err != nil {
				return err
			}
			if err := s.renumberFloors(ctx, container); err != nil {
				return err
			}
		}

		s.log.WithContext(ctx).Infow("subtree deleted",
			"node_id", nodeID, "type", node.NodeType, "affected", affected)
		return nil
	})
}

// renumberFloors rewrites the surviving floors of a container to the
// contiguous sequence 0..N-1, renaming them "Floor {n}", and stores the
// new count on the container detail.
func (s *Service) renumberFloors(ctx context.Context, container *LocationNode) error {
	floors, err := s.floorsOf(ctx, container)
	if err != nil {
		return err
	}
	for i, f := range floors {
		d, err := s.repo.GetFloorDetail(ctx, f.ID)
		if err != nil {
			return err
		}
		if d.Number == i && f.Name == FloorName(i) {
			continue
		}
		d.Number = i
		if err := s.repo.SaveFloorDetail(ctx, d); err != nil {
			return err
		}
		f.Name = FloorName(i)
		f.Touch()
		if err := s.repo.UpdateNode(ctx, f); err != nil {
			return err
		}
	}
	return s.saveFloorCount(ctx, container, len(floors))
}

// lockedFloorContainer loads a block or villa and takes its tree lock,
// returning the container and its current floor count.
func (s *Service) lockedFloorContainer(ctx context.Context, containerID id.ID) (*LocationNode, int, error) {
	container, err := s.repo.GetNode(ctx, containerID)
	if err != nil {
		return nil, 0, err
	}
	if container.NodeType != NodeBlock && container.NodeType != NodeHouse {
		return nil, 0, apperror.NewValidation("floors belong to blocks or villas").
			WithDetail("nodeType", string(container.NodeType))
	}
	if err := s.repo.LockTree(ctx, container.TreeID); err != nil {
		return nil, 0, err
	}
	current, err := s.repo.CountChildrenOfTypes(ctx, container.ID, NodeFloor)
	if err != nil {
		return nil, 0, err
	}
	return container, current, nil
}

func (s *Service) saveFloorCount(ctx context.Context, container *LocationNode, count int) error {
	if container.NodeType == NodeHouse {
		return s.repo.SaveVillaDetail(ctx, &VillaDetail{NodeID: container.ID, FloorCount: count})
	}
	return s.repo.SaveBlockDetail(ctx, &BlockDetail{NodeID: container.ID, FloorCount: count})
}

// floorsOf returns the container's non-deleted floors ordered by number.
func (s *Service) floorsOf(ctx context.Context, container *LocationNode) ([]*LocationNode, error) {
	children, err := s.repo.Children(ctx, container.ID)
	if err != nil {
		return nil, err
	}
	floors := make([]*LocationNode, 0, len(children))
	for _, c := range children {
		if c.NodeType == NodeFloor {
			floors = append(floors, c)
		}
	}
	// Children come back in lft order, which matches insertion order and
	// therefore the floor numbering.
	return floors, nil
}

// --- Queries ---

// GetNode returns one node.
func (s *Service) GetNode(ctx context.Context, nodeID id.ID) (*LocationNode, error) {
	return s.repo.GetNode(ctx, nodeID)
}

// GetUnitDetail returns the typed detail for a unit node.
func (s *Service) GetUnitDetail(ctx context.Context, nodeID id.ID) (*UnitDetail, error) {
	return s.repo.GetUnitDetail(ctx, nodeID)
}

// UpdateUnitStatus sets a unit's status, validating both the node type
// and the status value.
func (s *Service) UpdateUnitStatus(ctx context.Context, nodeID id.ID, status UnitStatus) error {
	if !validUnitStatus(status) {
		return apperror.NewValidation("unknown unit status").WithDetail("status", string(status))
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		node, err := s.repo.GetNode(ctx, nodeID)
		if err != nil {
			return err
		}
		if node.NodeType != NodeUnit {
			return apperror.NewValidation("status applies to units only").
				WithDetail("nodeType", string(node.NodeType))
		}
		d, err := s.repo.GetUnitDetail(ctx, nodeID)
		if err != nil {
			return err
		}
		d.Status = status
		return s.repo.SaveUnitDetail(ctx, d)
	})
}

// Breadcrumb returns the chain from the project root down to the node
// itself.
func (s *Service) Breadcrumb(ctx context.Context, nodeID id.ID) ([]*LocationNode, error) {
	node, err := s.repo.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	ancestors, err := s.repo.Ancestors(ctx, node)
	if err != nil {
		return nil, err
	}
	return append(ancestors, node), nil
}

// Subtree returns the node and all its descendants in lft order, which is
// depth-first preorder.
func (s *Service) Subtree(ctx context.Context, nodeID id.ID) ([]*LocationNode, error) {
	node, err := s.repo.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	desc, err := s.repo.Descendants(ctx, node)
	if err != nil {
		return nil, err
	}
	return append([]*LocationNode{node}, desc...), nil
}

// Children returns the direct children of a node.
func (s *Service) Children(ctx context.Context, parentID id.ID) ([]*LocationNode, error) {
	if _, err := s.repo.GetNode(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.Children(ctx, parentID)
}

// ListProjects lists project roots.
func (s *Service) ListProjects(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*LocationNode], error) {
	return s.repo.ListRoots(ctx, filter)
}

// IsDescendantOf reports whether node lies inside ancestor's subtree.
func (s *Service) IsDescendantOf(ctx context.Context, nodeID, ancestorID id.ID) (bool, error) {
	nodes, err := s.repo.GetNodes(ctx, []id.ID{nodeID, ancestorID})
	if err != nil {
		return false, err
	}
	var node, ancestor *LocationNode
	for _, n := range nodes {
		switch n.ID {
		case nodeID:
			node = n
		case ancestorID:
			ancestor = n
		}
	}
	if node == nil {
		return false, apperror.NewNotFound("location node", nodeID)
	}
	if ancestor == nil {
		return false, apperror.NewNotFound("location node", ancestorID)
	}
	return node.IsDescendantOf(ancestor), nil
}

func validUnitStatus(s UnitStatus) bool {
	switch s {
	case UnitAvailable, UnitRented, UnitSold, UnitOccupiedByOwner:
		return true
	}
	return false
}
