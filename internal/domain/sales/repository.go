package sales

import (
	"context"
	"time"

	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/parties"
	"estateops/internal/domain/plans"
)

// Repository is the persistence contract for sales, items, plans and
// schedules.
type Repository interface {
	InsertSale(ctx context.Context, s *PropertySale) error
	GetSale(ctx context.Context, saleID id.ID) (*PropertySale, error)
	UpdateSale(ctx context.Context, s *PropertySale) error
	ListSales(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*PropertySale], error)

	InsertSaleItem(ctx context.Context, i *PropertySaleItem) error
	GetSaleItem(ctx context.Context, itemID id.ID) (*PropertySaleItem, error)
	ListItemsBySale(ctx context.Context, saleID id.ID) ([]*PropertySaleItem, error)

	// CountItemsByNode counts non-deleted sale items referencing a node;
	// used to refuse node deletion while sale history exists.
	CountItemsByNode(ctx context.Context, nodeID id.ID) (int64, error)

	InsertPlan(ctx context.Context, p *PaymentPlan) error
	GetPlanBySaleItem(ctx context.Context, itemID id.ID) (*PaymentPlan, error)
	UpdatePlan(ctx context.Context, p *PaymentPlan) error

	InsertSchedule(ctx context.Context, s *PaymentSchedule) error
	GetSchedule(ctx context.Context, scheduleID id.ID) (*PaymentSchedule, error)
	UpdateSchedule(ctx context.Context, s *PaymentSchedule) error

	// ListSchedulesByPlan returns the plan's rows ordered by payment_number.
	ListSchedulesByPlan(ctx context.Context, planID id.ID) ([]*PaymentSchedule, error)

	// DeletePendingSchedules removes the plan's pending rows; paid and
	// cancelled rows are never touched. Returns the number removed.
	DeletePendingSchedules(ctx context.Context, planID id.ID) (int64, error)

	// --- Evaluator aggregates. All restricted to non-deleted,
	// non-cancelled schedules belonging to non-cancelled sales. ---

	SumItemPrices(ctx context.Context) (types.Money, error)
	CountInstallmentPlans(ctx context.Context) (int64, error)
	SumPendingAmount(ctx context.Context) (types.Money, error)
	CountPendingDueBefore(ctx context.Context, day time.Time) (int64, error)
	CountPendingDueBetween(ctx context.Context, from, to time.Time) (int64, error)

	// SchedulesDueBetween returns rows with due_date inside [from, to).
	SchedulesDueBetween(ctx context.Context, from, to time.Time) ([]*PaymentSchedule, error)

	// SchedulesPaidBetween returns paid rows with paid_date inside [from, to).
	SchedulesPaidBetween(ctx context.Context, from, to time.Time) ([]*PaymentSchedule, error)
}

// NodeResolver is the slice of the location layer the engine needs to
// resolve property nodes.
type NodeResolver interface {
	GetNode(ctx context.Context, nodeID id.ID) (*locations.LocationNode, error)
}

// BuyerResolver resolves buyer ids to users.
type BuyerResolver interface {
	GetUsers(ctx context.Context, userIDs []id.ID) ([]*parties.User, error)
}

// TemplateCatalog is the slice of the plan catalog the engine consults.
type TemplateCatalog interface {
	Get(ctx context.Context, templateID id.ID) (*plans.PaymentPlanTemplate, error)
	RecordUsage(ctx context.Context, templateID id.ID) error
}

// CommissionRecorder writes the pending commission row inside the sale
// transaction.
type CommissionRecorder interface {
	RecordPending(ctx context.Context, saleID, agentID id.ID, commissionType string, rate *types.Money, amount types.Money) error
}
