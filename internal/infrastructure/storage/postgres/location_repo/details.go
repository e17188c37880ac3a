package location_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/locations"
	"estateops/internal/infrastructure/storage/postgres"
)

// Detail tables are one row per node, keyed by node_id. Saves are
// upserts so AdjustFloorCount and unit status flips need no
// insert-or-update branching in the service.

func (r *Repo) saveDetail(ctx context.Context, table string, detail any) error {
	data := postgres.StructToMap(detail)
	nodeID, ok := data["node_id"]
	if !ok {
		return fmt.Errorf("detail has no node_id column")
	}

	cols := make([]string, 0, len(data))
	vals := make([]any, 0, len(data))
	sets := make([]string, 0, len(data))
	for col, val := range data {
		cols = append(cols, col)
		vals = append(vals, val)
		if col != "node_id" {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	q := r.Builder().
		Insert(table).
		Columns(cols...).
		Values(vals...)
	if len(sets) > 0 {
		q = q.Suffix("ON CONFLICT (node_id) DO UPDATE SET " + strings.Join(sets, ", "))
	} else {
		q = q.Suffix("ON CONFLICT (node_id) DO NOTHING")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save %s for node %s: %w", table, nodeID, err)
	}
	return nil
}

func (r *Repo) getDetail(ctx context.Context, table string, nodeID id.ID, dest any) error {
	sql, args, err := r.Builder().
		Select(postgres.ExtractDBColumnsOf(dest)...).
		From(table).
		Where(squirrel.Eq{"node_id": nodeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.Querier(ctx), dest, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(table, nodeID)
		}
		return fmt.Errorf("query %s: %w", table, err)
	}
	return nil
}

func (r *Repo) SaveProjectDetail(ctx context.Context, d *locations.ProjectDetail) error {
	return r.saveDetail(ctx, "project_details", d)
}

func (r *Repo) GetProjectDetail(ctx context.Context, nodeID id.ID) (*locations.ProjectDetail, error) {
	d := &locations.ProjectDetail{}
	if err := r.getDetail(ctx, "project_details", nodeID, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repo) SaveBlockDetail(ctx context.Context, d *locations.BlockDetail) error {
	return r.saveDetail(ctx, "block_details", d)
}

func (r *Repo) GetBlockDetail(ctx context.Context, nodeID id.ID) (*locations.BlockDetail, error) {
	d := &locations.BlockDetail{}
	if err := r.getDetail(ctx, "block_details", nodeID, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repo) SaveVillaDetail(ctx context.Context, d *locations.VillaDetail) error {
	return r.saveDetail(ctx, "villa_details", d)
}

func (r *Repo) GetVillaDetail(ctx context.Context, nodeID id.ID) (*locations.VillaDetail, error) {
	d := &locations.VillaDetail{}
	if err := r.getDetail(ctx, "villa_details", nodeID, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repo) SaveFloorDetail(ctx context.Context, d *locations.FloorDetail) error {
	return r.saveDetail(ctx, "floor_details", d)
}

func (r *Repo) GetFloorDetail(ctx context.Context, nodeID id.ID) (*locations.FloorDetail, error) {
	d := &locations.FloorDetail{}
	if err := r.getDetail(ctx, "floor_details", nodeID, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repo) SaveUnitDetail(ctx context.Context, d *locations.UnitDetail) error {
	return r.saveDetail(ctx, "unit_details", d)
}

func (r *Repo) GetUnitDetail(ctx context.Context, nodeID id.ID) (*locations.UnitDetail, error) {
	d := &locations.UnitDetail{}
	if err := r.getDetail(ctx, "unit_details", nodeID, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repo) SaveRoomDetail(ctx context.Context, d *locations.RoomDetail) error {
	return r.saveDetail(ctx, "room_details", d)
}

func (r *Repo) SaveBasementDetail(ctx context.Context, d *locations.BasementDetail) error {
	return r.saveDetail(ctx, "basement_details", d)
}

func (r *Repo) SaveSlotDetail(ctx context.Context, d *locations.SlotDetail) error {
	return r.saveDetail(ctx, "slot_details", d)
}
