package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain"
)

// BaseRepo provides common CRUD for entities embedding entity.Base.
// Specific repositories embed it and add their domain queries. All
// queries go through the TxManager's querier so they join an enclosing
// transaction.
type BaseRepo[T any] struct {
	tm         *TxManager
	tableName  string
	selectCols []string
	searchCols []string
	newFn      func() T
}

// NewBaseRepo creates a base repository for one table.
func NewBaseRepo[T any](tm *TxManager, tableName string, searchCols []string, newFn func() T) *BaseRepo[T] {
	return &BaseRepo[T]{
		tm:         tm,
		tableName:  tableName,
		selectCols: ExtractDBColumns[T](),
		searchCols: searchCols,
		newFn:      newFn,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the active transaction or the pool.
func (r *BaseRepo[T]) Querier(ctx context.Context) Querier {
	return r.tm.GetQuerier(ctx)
}

// Insert stores a new entity using its "db" tags.
func (r *BaseRepo[T]) Insert(ctx context.Context, entity T) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// Update rewrites an entity with optimistic locking on version.
func (r *BaseRepo[T]) Update(ctx context.Context, entity T) error {
	data := StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no integer 'version' field")
	}
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", version).
		Where(squirrel.Eq{"id": entityID}).
		// The entity's version was already bumped in memory; expect the
		// previous one on disk.
		Where(squirrel.Eq{"version": version - 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}
	return nil
}

// BaseSelect creates a SELECT over the table's columns.
func (r *BaseRepo[T]) BaseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves one non-deleted entity.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity := r.newFn()
	q := r.BaseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1)
	if err := r.FindOne(ctx, q, entity); err != nil {
		if apperror.IsNotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, entityID)
		}
		return entity, err
	}
	return entity, nil
}

// FindOne scans a single row into dest.
func (r *BaseRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, dest any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.Querier(ctx), dest, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(r.tableName, nil)
		}
		return fmt.Errorf("query %s: %w", r.tableName, err)
	}
	return nil
}

// FindMany scans all rows into dest (a pointer to a slice).
func (r *BaseRepo[T]) FindMany(ctx context.Context, q squirrel.SelectBuilder, dest any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.Querier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("query %s: %w", r.tableName, err)
	}
	return nil
}

// Select scans all rows of a hand-written query into dest (a pointer to
// a slice). For joins the builder cannot express cleanly.
func (r *BaseRepo[T]) Select(ctx context.Context, dest any, sql string, args ...any) error {
	if err := pgxscan.Select(ctx, r.Querier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("query %s: %w", r.tableName, err)
	}
	return nil
}

// List applies the common filter to the base select.
func (r *BaseRepo[T]) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[T], error) {
	return r.ListWith(ctx, r.BaseSelect(), filter)
}

// ListWith applies the common filter on top of a prepared select.
func (r *BaseRepo[T]) ListWith(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter) (*domain.ListResult[T], error) {
	result := &domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"is_deleted": false})
	}
	if filter.Search != "" && len(r.searchCols) > 0 {
		pattern := "%" + filter.Search + "%"
		or := make(squirrel.Or, len(r.searchCols))
		for i, col := range r.searchCols {
			or[i] = squirrel.ILike{col: pattern}
		}
		q = q.Where(or)
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return nil, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return nil, err
	}
	q = q.OrderBy(orderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	if err := r.FindMany(ctx, q, &result.Items); err != nil {
		return nil, err
	}
	return result, nil
}

// parseOrderBy turns "name" / "-created_at" into an ORDER BY clause,
// whitelisting against the table's columns.
func (r *BaseRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "created_at DESC", nil
	}
	dir := "ASC"
	col := orderBy
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		col = orderBy[1:]
	}
	for _, c := range r.selectCols {
		if c == col {
			return col + " " + dir, nil
		}
	}
	return "", apperror.NewValidation("invalid order column").WithDetail("orderBy", orderBy)
}

// SoftDeleteByID marks one entity deleted.
func (r *BaseRepo[T]) SoftDeleteByID(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("is_deleted", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"is_deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID)
	}
	return nil
}
