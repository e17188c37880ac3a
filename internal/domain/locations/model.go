// Package locations provides the real-estate hierarchy: projects, blocks,
// villas, floors, units, rooms, basements and parking slots, stored as a
// nested-set tree.
package locations

import (
	"context"
	"fmt"
	"strings"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
)

// NodeType enumerates the node kinds of the hierarchy.
type NodeType string

const (
	NodeProject  NodeType = "PROJECT"
	NodeBlock    NodeType = "BLOCK"
	NodeHouse    NodeType = "HOUSE" // standalone villa
	NodeFloor    NodeType = "FLOOR"
	NodeUnit     NodeType = "UNIT"
	NodeRoom     NodeType = "ROOM"
	NodeBasement NodeType = "BASEMENT"
	NodeSlot     NodeType = "SLOT"
)

// allowedParents is the type-transition table: child type → permitted
// parent types. PROJECT is absent because it is always a root.
var allowedParents = map[NodeType][]NodeType{
	NodeBlock:    {NodeProject},
	NodeHouse:    {NodeProject},
	NodeFloor:    {NodeBlock, NodeHouse},
	NodeUnit:     {NodeFloor},
	NodeRoom:     {NodeUnit, NodeFloor},
	NodeBasement: {NodeProject},
	NodeSlot:     {NodeBasement},
}

// CanChildOf reports whether t may be created under a parent of the given type.
func (t NodeType) CanChildOf(parent NodeType) bool {
	for _, p := range allowedParents[t] {
		if p == parent {
			return true
		}
	}
	return false
}

// Valid reports whether the node type is one of the known kinds.
func (t NodeType) Valid() bool {
	switch t {
	case NodeProject, NodeBlock, NodeHouse, NodeFloor, NodeUnit, NodeRoom, NodeBasement, NodeSlot:
		return true
	}
	return false
}

// PropertyType classifies what a node is used for.
type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyCommercial  PropertyType = "commercial"
	PropertyMixedUse    PropertyType = "mixed_use"
)

// LocationNode is one node of the hierarchy. The nested-set columns
// (tree_id, lft, rght) support range-based ancestor/descendant queries:
// within one tree, ancestor.lft < descendant.lft < descendant.rght <
// ancestor.rght.
type LocationNode struct {
	entity.Base

	Name         string        `db:"name" json:"name"`
	NodeType     NodeType      `db:"node_type" json:"nodeType"`
	ParentID     *id.ID        `db:"parent_id" json:"parentId,omitempty"`
	PropertyType *PropertyType `db:"property_type" json:"propertyType,omitempty"`

	TreeID int64 `db:"tree_id" json:"-"`
	Lft    int   `db:"lft" json:"-"`
	Rght   int   `db:"rght" json:"-"`
}

// Validate implements entity.Validatable.
func (n *LocationNode) Validate(ctx context.Context) error {
	if strings.TrimSpace(n.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !n.NodeType.Valid() {
		return apperror.NewValidation("unknown node type").WithDetail("nodeType", string(n.NodeType))
	}
	if n.NodeType == NodeProject && n.ParentID != nil {
		return apperror.NewValidation("a project cannot have a parent")
	}
	if n.NodeType != NodeProject && n.ParentID == nil {
		return apperror.NewValidation(fmt.Sprintf("%s requires a parent", n.NodeType))
	}
	return nil
}

// IsDescendantOf reports whether n lies strictly inside other's interval.
// Both nodes must belong to the same tree.
func (n *LocationNode) IsDescendantOf(other *LocationNode) bool {
	return n.TreeID == other.TreeID && other.Lft < n.Lft && n.Rght < other.Rght
}

// IsAncestorOf is the inverse of IsDescendantOf.
func (n *LocationNode) IsAncestorOf(other *LocationNode) bool {
	return other.IsDescendantOf(n)
}

// --- Typed details (one-to-one with a node of the matching type) ---

// UnitStatus tracks how a unit is currently held.
type UnitStatus string

const (
	UnitAvailable       UnitStatus = "available"
	UnitRented          UnitStatus = "rented"
	UnitSold            UnitStatus = "sold"
	UnitOccupiedByOwner UnitStatus = "occupied_by_owner"
)

// ManagementMode tells whether the operator only services a unit or fully
// manages it.
type ManagementMode string

const (
	ServiceOnly    ManagementMode = "SERVICE_ONLY"
	FullManagement ManagementMode = "FULL_MANAGEMENT"
)

// ProjectDetail carries project-level attributes.
type ProjectDetail struct {
	NodeID      id.ID  `db:"node_id" json:"nodeId"`
	Address     string `db:"address" json:"address"`
	City        string `db:"city" json:"city"`
	Description string `db:"description" json:"description,omitempty"`
}

// BlockDetail carries block-level attributes.
type BlockDetail struct {
	NodeID     id.ID `db:"node_id" json:"nodeId"`
	FloorCount int   `db:"floor_count" json:"floorCount"`
}

// VillaDetail carries villa (HOUSE) attributes.
type VillaDetail struct {
	NodeID     id.ID `db:"node_id" json:"nodeId"`
	FloorCount int   `db:"floor_count" json:"floorCount"`
}

// FloorDetail carries the floor ordinal used for display names and
// renumbering.
type FloorDetail struct {
	NodeID id.ID `db:"node_id" json:"nodeId"`
	Number int   `db:"number" json:"number"`
}

// UnitDetail carries unit attributes; the sale engine reads Status and
// ManagementMode.
type UnitDetail struct {
	NodeID         id.ID          `db:"node_id" json:"nodeId"`
	Status         UnitStatus     `db:"status" json:"status"`
	ManagementMode ManagementMode `db:"management_mode" json:"managementMode"`
	SizeSqM        *float64       `db:"size_sqm" json:"sizeSqm,omitempty"`
	Bedrooms       *int           `db:"bedrooms" json:"bedrooms,omitempty"`
}

// RoomDetail carries room attributes.
type RoomDetail struct {
	NodeID  id.ID    `db:"node_id" json:"nodeId"`
	SizeSqM *float64 `db:"size_sqm" json:"sizeSqm,omitempty"`
}

// BasementDetail carries basement attributes.
type BasementDetail struct {
	NodeID    id.ID `db:"node_id" json:"nodeId"`
	SlotCount int   `db:"slot_count" json:"slotCount"`
}

// SlotDetail carries parking-slot attributes.
type SlotDetail struct {
	NodeID id.ID  `db:"node_id" json:"nodeId"`
	Code   string `db:"code" json:"code"`
}

// FloorName renders the canonical display name for a floor ordinal.
func FloorName(number int) string {
	return fmt.Sprintf("Floor %d", number)
}
