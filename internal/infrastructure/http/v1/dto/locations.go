package dto

import (
	"time"

	"estateops/internal/core/id"
	"estateops/internal/domain/locations"
)

// CreateProjectRequest creates a project root.
type CreateProjectRequest struct {
	Name         string `json:"name" binding:"required"`
	PropertyType string `json:"propertyType" binding:"required"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Description  string `json:"description"`
}

// ToInput maps the request to the service input.
func (r CreateProjectRequest) ToInput() locations.CreateProjectInput {
	return locations.CreateProjectInput{
		Name:         r.Name,
		PropertyType: locations.PropertyType(r.PropertyType),
		Address:      r.Address,
		City:         r.City,
		Description:  r.Description,
	}
}

// CreateChildRequest creates a node under a parent.
type CreateChildRequest struct {
	ParentID string `json:"parentId" binding:"required,uuid"`
	NodeType string `json:"nodeType" binding:"required"`
	Name     string `json:"name" binding:"required"`

	PropertyType *string `json:"propertyType"`

	FloorCount int `json:"floorCount"`
	SlotCount  int `json:"slotCount"`

	UnitStatus     string   `json:"unitStatus"`
	ManagementMode string   `json:"managementMode"`
	SizeSqM        *float64 `json:"sizeSqm"`
	Bedrooms       *int     `json:"bedrooms"`
}

// ToInput maps the request to the service input.
func (r CreateChildRequest) ToInput(parentID id.ID) locations.CreateChildInput {
	in := locations.CreateChildInput{
		ParentID:       parentID,
		NodeType:       locations.NodeType(r.NodeType),
		Name:           r.Name,
		FloorCount:     r.FloorCount,
		SlotCount:      r.SlotCount,
		UnitStatus:     locations.UnitStatus(r.UnitStatus),
		ManagementMode: locations.ManagementMode(r.ManagementMode),
		SizeSqM:        r.SizeSqM,
		Bedrooms:       r.Bedrooms,
	}
	if r.PropertyType != nil {
		pt := locations.PropertyType(*r.PropertyType)
		in.PropertyType = &pt
	}
	return in
}

// AdjustFloorsRequest sets a block or villa floor count.
type AdjustFloorsRequest struct {
	FloorCount int `json:"floorCount" binding:"required,min=0"`
}

// AddFloorsRequest appends floors to a block or villa.
type AddFloorsRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

// UpdateUnitStatusRequest flips the unit status.
type UpdateUnitStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// NodeResponse is one hierarchy node.
type NodeResponse struct {
	ID           id.ID     `json:"id"`
	Name         string    `json:"name"`
	NodeType     string    `json:"nodeType"`
	ParentID     *id.ID    `json:"parentId,omitempty"`
	PropertyType *string   `json:"propertyType,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromNode maps a node to its response.
func FromNode(n *locations.LocationNode) NodeResponse {
	resp := NodeResponse{
		ID:        n.ID,
		Name:      n.Name,
		NodeType:  string(n.NodeType),
		ParentID:  n.ParentID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.PropertyType != nil {
		pt := string(*n.PropertyType)
		resp.PropertyType = &pt
	}
	return resp
}

// FromNodes maps a node slice, never returning nil.
func FromNodes(nodes []*locations.LocationNode) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, FromNode(n))
	}
	return out
}

// UnitDetailResponse is the unit attribute block.
type UnitDetailResponse struct {
	NodeID         id.ID    `json:"nodeId"`
	Status         string   `json:"status"`
	ManagementMode string   `json:"managementMode"`
	SizeSqM        *float64 `json:"sizeSqm,omitempty"`
	Bedrooms       *int     `json:"bedrooms,omitempty"`
}

// FromUnitDetail maps the unit detail.
func FromUnitDetail(d *locations.UnitDetail) UnitDetailResponse {
	return UnitDetailResponse{
		NodeID:         d.NodeID,
		Status:         string(d.Status),
		ManagementMode: string(d.ManagementMode),
		SizeSqM:        d.SizeSqM,
		Bedrooms:       d.Bedrooms,
	}
}
