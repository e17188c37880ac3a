package sales

import (
	"context"
	"fmt"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/timex"
	"estateops/internal/core/tx"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/internal/domain/plans"
	"estateops/pkg/logger"
)

// Commission type literals accepted on the sale request.
const (
	CommissionPercent = "%"
	CommissionFixed   = "fixed"
)

// Service implements the sale transaction engine.
type Service struct {
	repo        Repository
	nodes       NodeResolver
	buyers      BuyerResolver
	templates   TemplateCatalog
	commissions CommissionRecorder
	txManager   tx.Manager
	log         *logger.Logger
}

// NewService creates the sale service.
func NewService(
	repo Repository,
	nodes NodeResolver,
	buyers BuyerResolver,
	templates TemplateCatalog,
	commissions CommissionRecorder,
	txManager tx.Manager,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		nodes:       nodes,
		buyers:      buyers,
		templates:   templates,
		commissions: commissions,
		txManager:   txManager,
		log:         log.WithComponent("sales.service"),
	}
}

// PairInput is one (property, buyer, ownership%) tuple of a sale request.
type PairInput struct {
	PropertyNodeID      id.ID
	BuyerID             id.ID
	OwnershipPercentage types.Money
	PossessionDate      *time.Time
}

// CreateSaleInput is the single entry point's request.
type CreateSaleInput struct {
	Pairs []PairInput

	TotalPropertyPrice types.Money
	TotalDownPayment   types.Money

	PlanStartDate        time.Time
	PlanFrequency        plans.Frequency
	PlanInstallmentCount int
	PlanTemplateID       *id.ID

	AgentID               *id.ID
	AgentCommissionType   string
	AgentCommissionRate   *types.Money
	AgentCommissionAmount *types.Money

	AssignedSalesPerson *id.ID
	SaleDate            time.Time
	Notes               string
}

// SaleItemDetail bundles one sale item with its plan and schedule.
type SaleItemDetail struct {
	Item      *PropertySaleItem  `json:"item"`
	Plan      *PaymentPlan       `json:"plan"`
	Schedules []*PaymentSchedule `json:"schedules"`
}

// SaleDetail is the full aggregate of one sale.
type SaleDetail struct {
	Sale  *PropertySale     `json:"sale"`
	Items []*SaleItemDetail `json:"items"`
}

// CreateSale validates and writes one sale atomically: the envelope, one
// item per pair, one installment plan per item, the expanded schedule
// rows, and the pending commission when an agent is attached. Any failure
// rolls the whole write back.
func (s *Service) CreateSale(ctx context.Context, in CreateSaleInput) (*SaleDetail, error) {
	if err := s.validateRequest(ctx, &in); err != nil {
		return nil, err
	}

	var detail *SaleDetail
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		tmpl, err := s.resolveTemplate(ctx, &in)
		if err != nil {
			return err
		}

		sale := &PropertySale{
			Base:                entity.NewBase(),
			SaleDate:            timex.DateOnly(in.SaleDate),
			Status:              SalePending,
			AgentID:             in.AgentID,
			AssignedSalesPerson: in.AssignedSalesPerson,
			Notes:               in.Notes,
		}
		if err := s.repo.InsertSale(ctx, sale); err != nil {
			return err
		}

		detail = &SaleDetail{Sale: sale}
		for _, group := range groupByProperty(in.Pairs) {
			items, err := s.writeGroup(ctx, sale, group, in, tmpl)
			if err != nil {
				return err
			}
			detail.Items = append(detail.Items, items...)
		}

		if in.AgentID != nil {
			amount := s.commissionAmount(in)
			if err := s.commissions.RecordPending(ctx, sale.ID, *in.AgentID,
				in.AgentCommissionType, in.AgentCommissionRate, amount); err != nil {
				return err
			}
		}

		if tmpl != nil {
			return s.templates.RecordUsage(ctx, tmpl.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Infow("sale created",
		"sale_id", detail.Sale.ID,
		"items", len(detail.Items),
		"total_price", in.TotalPropertyPrice.StringFixed(2))
	return detail, nil
}

// validateRequest runs the ordered request checks; the first failure
// aborts before anything is written.
func (s *Service) validateRequest(ctx context.Context, in *CreateSaleInput) error {
	if len(in.Pairs) == 0 {
		return apperror.NewValidation("at least one property-buyer pair is required")
	}
	if !in.TotalPropertyPrice.IsPositive() {
		return apperror.NewValidation("total property price must be positive")
	}
	if in.TotalDownPayment.IsNegative() || in.TotalDownPayment.GreaterThan(in.TotalPropertyPrice) {
		return apperror.NewValidation("down payment must be between 0 and the total price")
	}

	buyerIDs := make([]id.ID, 0, len(in.Pairs))
	for _, p := range in.Pairs {
		if !p.OwnershipPercentage.IsPositive() || p.OwnershipPercentage.GreaterThan(types.Hundred) {
			return apperror.NewValidation("ownership percentage must be in (0, 100]").
				WithDetail("property_node_id", p.PropertyNodeID)
		}
		if _, err := s.nodes.GetNode(ctx, p.PropertyNodeID); err != nil {
			return err
		}
		buyerIDs = append(buyerIDs, p.BuyerID)
	}
	users, err := s.buyers.GetUsers(ctx, buyerIDs)
	if err != nil {
		return err
	}
	found := make(map[id.ID]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	for _, p := range in.Pairs {
		if !found[p.BuyerID] {
			return apperror.NewNotFound("buyer", p.BuyerID)
		}
	}

	for _, group := range groupByProperty(in.Pairs) {
		sum := types.Zero()
		for _, p := range group {
			sum = sum.Add(p.OwnershipPercentage)
		}
		if !types.WithinCent(sum, types.Hundred) {
			return apperror.NewOwnershipSumMismatch(
				group[0].PropertyNodeID.String(), sum.StringFixed(2))
		}
	}

	if !in.PlanFrequency.Valid() {
		return apperror.NewValidation("unknown frequency").
			WithDetail("frequency", string(in.PlanFrequency))
	}
	if in.PlanInstallmentCount < 1 {
		return apperror.NewValidation("installment count must be at least 1")
	}
	if max := in.PlanFrequency.MaxPeriods(); in.PlanInstallmentCount > max {
		return apperror.NewValidation("installment count exceeds the cadence limit").
			WithDetail("frequency", string(in.PlanFrequency)).
			WithDetail("max", max)
	}
	if in.PlanStartDate.IsZero() {
		return apperror.NewValidation("plan start date is required")
	}
	if in.SaleDate.IsZero() {
		in.SaleDate = time.Now().UTC()
	}

	return s.validateCommission(in)
}

func (s *Service) validateCommission(in *CreateSaleInput) error {
	if in.AgentID == nil {
		if in.AgentCommissionType != "" || in.AgentCommissionRate != nil || in.AgentCommissionAmount != nil {
			return apperror.NewValidation("commission fields require an agent")
		}
		return nil
	}
	switch in.AgentCommissionType {
	case CommissionPercent:
		if in.AgentCommissionAmount != nil {
			return apperror.NewValidation("percentage commissions must not carry a fixed amount")
		}
		if in.AgentCommissionRate == nil ||
			in.AgentCommissionRate.IsNegative() ||
			in.AgentCommissionRate.GreaterThan(types.Hundred) {
			return apperror.NewValidation("commission rate must be between 0 and 100")
		}
	case CommissionFixed:
		if in.AgentCommissionRate != nil {
			return apperror.NewValidation("fixed commissions must not carry a rate")
		}
		if in.AgentCommissionAmount == nil || !in.AgentCommissionAmount.IsPositive() {
			return apperror.NewValidation("commission amount must be positive")
		}
	case "":
		return apperror.NewValidation("commission type is required when an agent is set")
	default:
		return apperror.NewValidation("commission type must be % or fixed").
			WithDetail("commission_type", in.AgentCommissionType)
	}
	return nil
}

func (s *Service) commissionAmount(in CreateSaleInput) types.Money {
	if in.AgentCommissionType == CommissionFixed {
		return *in.AgentCommissionAmount
	}
	return types.PercentOf(in.TotalPropertyPrice, *in.AgentCommissionRate)
}

// resolveTemplate loads the requested template and checks it against the
// plan fields. A mismatching template is dropped and the plan proceeds as
// custom.
func (s *Service) resolveTemplate(ctx context.Context, in *CreateSaleInput) (*plans.PaymentPlanTemplate, error) {
	if in.PlanTemplateID == nil {
		return nil, nil
	}
	tmpl, err := s.templates.Get(ctx, *in.PlanTemplateID)
	if err != nil {
		return nil, err
	}
	deposit := types.RatioPercent(in.TotalDownPayment, in.TotalPropertyPrice)
	if !tmpl.Matches(in.PlanInstallmentCount, in.PlanFrequency, deposit) {
		s.log.WithContext(ctx).Infow("template mismatch, plan falls back to custom",
			"template_id", tmpl.ID)
		return nil, nil
	}
	return tmpl, nil
}

// writeGroup writes the sale items for one property: the group's totals
// are split by ownership percentage with the rounding residual landing on
// the last item.
func (s *Service) writeGroup(ctx context.Context, sale *PropertySale, group []PairInput, in CreateSaleInput, tmpl *plans.PaymentPlanTemplate) ([]*SaleItemDetail, error) {
	percents := make([]types.Money, len(group))
	for i, p := range group {
		percents[i] = p.OwnershipPercentage
	}
	prices := types.SplitByPercents(in.TotalPropertyPrice, percents)
	downs := types.SplitByPercents(in.TotalDownPayment, percents)

	out := make([]*SaleItemDetail, 0, len(group))
	for i, p := range group {
		item := &PropertySaleItem{
			Base:                  entity.NewBase(),
			SaleID:                sale.ID,
			PropertyNodeID:        p.PropertyNodeID,
			BuyerID:               p.BuyerID,
			SalePrice:             prices[i],
			DownPayment:           downs[i],
			DownPaymentPercentage: types.RatioPercent(downs[i], prices[i]),
			OwnershipPercentage:   p.OwnershipPercentage,
			PossessionDate:        p.PossessionDate,
		}
		if err := item.Validate(ctx); err != nil {
			return nil, err
		}
		if err := s.repo.InsertSaleItem(ctx, item); err != nil {
			return nil, err
		}

		plan, schedules, err := s.writePlan(ctx, item, in, tmpl)
		if err != nil {
			return nil, err
		}
		out = append(out, &SaleItemDetail{Item: item, Plan: plan, Schedules: schedules})
	}
	return out, nil
}

// writePlan inserts the item's installment plan and its expanded
// schedule. The financed remainder is split evenly across rows, the
// division residual lands on the last row, and due dates advance one
// period per row starting one period after the plan start (the down
// payment covers the start date itself).
func (s *Service) writePlan(ctx context.Context, item *PropertySaleItem, in CreateSaleInput, tmpl *plans.PaymentPlanTemplate) (*PaymentPlan, []*PaymentSchedule, error) {
	count := in.PlanInstallmentCount
	freq := in.PlanFrequency
	start := timex.DateOnly(in.PlanStartDate)

	plan := &PaymentPlan{
		Base:             entity.NewBase(),
		SaleItemID:       item.ID,
		PaymentType:      PaymentInstallments,
		InstallmentCount: &count,
		Frequency:        &freq,
		StartDate:        &start,
		IsCustom:         tmpl == nil,
	}
	if tmpl != nil {
		tmplID := tmpl.ID
		plan.TemplateID = &tmplID
	}
	plan.EndDate = plan.ComputeEndDate()
	if err := plan.Validate(ctx); err != nil {
		return nil, nil, err
	}
	if err := s.repo.InsertPlan(ctx, plan); err != nil {
		return nil, nil, err
	}

	financed := item.SalePrice.Sub(item.DownPayment)
	amounts := types.SplitEven(financed, count)
	period := freq.PeriodMonths()

	schedules := make([]*PaymentSchedule, 0, count)
	for n := 1; n <= count; n++ {
		row := &PaymentSchedule{
			Base:          entity.NewBase(),
			PlanID:        plan.ID,
			PaymentNumber: n,
			DueDate:       timex.AddMonthsClamped(start, n*period),
			Amount:        amounts[n-1],
			Status:        SchedulePending,
			LateFee:       types.Zero(),
		}
		if err := row.Validate(ctx); err != nil {
			return nil, nil, err
		}
		if err := s.repo.InsertSchedule(ctx, row); err != nil {
			return nil, nil, err
		}
		schedules = append(schedules, row)
	}
	return plan, schedules, nil
}

// groupByProperty partitions pairs by property node, preserving request
// order within and across groups.
func groupByProperty(pairs []PairInput) [][]PairInput {
	index := make(map[id.ID]int)
	var groups [][]PairInput
	for _, p := range pairs {
		i, ok := index[p.PropertyNodeID]
		if !ok {
			i = len(groups)
			index[p.PropertyNodeID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	return groups
}

// --- Reads ---

// GetSale loads the full aggregate of one sale.
func (s *Service) GetSale(ctx context.Context, saleID id.ID) (*SaleDetail, error) {
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItemsBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	detail := &SaleDetail{Sale: sale}
	for _, item := range items {
		plan, err := s.repo.GetPlanBySaleItem(ctx, item.ID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		var schedules []*PaymentSchedule
		if plan != nil {
			schedules, err = s.repo.ListSchedulesByPlan(ctx, plan.ID)
			if err != nil {
				return nil, err
			}
		}
		detail.Items = append(detail.Items, &SaleItemDetail{Item: item, Plan: plan, Schedules: schedules})
	}
	return detail, nil
}

// ListSales lists sale envelopes.
func (s *Service) ListSales(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*PropertySale], error) {
	return s.repo.ListSales(ctx, filter)
}

// InstallmentRow is one schedule row with its derived read-time status.
type InstallmentRow struct {
	*PaymentSchedule
	DerivedStatus DerivedStatus `json:"derivedStatus"`
	DaysOverdue   int           `json:"daysOverdue"`
}

// ListInstallments returns the paginated schedule of one sale item with
// derived statuses evaluated against the server clock.
func (s *Service) ListInstallments(ctx context.Context, saleItemID id.ID, filter domain.ListFilter) (*domain.ListResult[*InstallmentRow], error) {
	if _, err := s.repo.GetSaleItem(ctx, saleItemID); err != nil {
		return nil, err
	}
	plan, err := s.repo.GetPlanBySaleItem(ctx, saleItemID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSchedulesByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	all := make([]*InstallmentRow, len(rows))
	for i, r := range rows {
		all[i] = &InstallmentRow{
			PaymentSchedule: r,
			DerivedStatus:   r.DeriveStatus(today),
			DaysOverdue:     r.DaysOverdue(today),
		}
	}

	total := int64(len(all))
	offset := filter.Offset
	if offset > len(all) {
		offset = len(all)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = len(all) - offset
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return &domain.ListResult[*InstallmentRow]{
		Items:      all[offset:end],
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// --- Mutations after creation ---

// TransitionStatus moves a sale along its monotone lifecycle.
func (s *Service) TransitionStatus(ctx context.Context, saleID id.ID, next SaleStatus) (*PropertySale, error) {
	if !next.Valid() {
		return nil, apperror.NewValidation("unknown sale status").WithDetail("status", string(next))
	}
	var sale *PropertySale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.Status == next {
			return nil
		}
		if !sale.Status.CanTransitionTo(next) {
			return apperror.NewInvalidStatusTransition("sale", string(sale.Status), string(next))
		}
		sale.Status = next
		sale.Touch()
		return s.repo.UpdateSale(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// MarkPaidInput records a payment against one schedule row.
type MarkPaidInput struct {
	ScheduleID id.ID
	PaidDate   time.Time
	PaidAmount *types.Money
	LateFee    *types.Money
}

// MarkPaid flips a pending row to paid. Paid rows never go back to
// pending; repeated calls fail as an invalid transition, as do payments
// against cancelled rows.
func (s *Service) MarkPaid(ctx context.Context, in MarkPaidInput) (*PaymentSchedule, error) {
	var row *PaymentSchedule
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.repo.GetSchedule(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		if row.Status != SchedulePending {
			return apperror.NewInvalidStatusTransition("payment schedule", string(row.Status), string(SchedulePaid))
		}
		paidDate := in.PaidDate
		if paidDate.IsZero() {
			paidDate = time.Now().UTC()
		}
		paidDate = timex.DateOnly(paidDate)
		amount := row.Amount
		if in.PaidAmount != nil {
			if !in.PaidAmount.IsPositive() {
				return apperror.NewValidation("paid amount must be positive")
			}
			amount = *in.PaidAmount
		}
		row.Status = SchedulePaid
		row.PaidDate = &paidDate
		row.PaidAmount = &amount
		if in.LateFee != nil {
			if in.LateFee.IsNegative() {
				return apperror.NewValidation("late fee must not be negative")
			}
			row.LateFee = *in.LateFee
		}
		row.Touch()
		return s.repo.UpdateSchedule(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// UpdatePlanInput rewrites the installment terms of a plan.
type UpdatePlanInput struct {
	SaleItemID       id.ID
	InstallmentCount int
	Frequency        plans.Frequency
	StartDate        time.Time
}

// UpdatePlan rewrites a plan's terms and regenerates its pending
// schedule. Any edit detaches the template and marks the plan custom.
// Plans with paid rows are frozen.
func (s *Service) UpdatePlan(ctx context.Context, in UpdatePlanInput) (*PaymentPlan, error) {
	var plan *PaymentPlan
	err := s.txManager.RunSerializable(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetSaleItem(ctx, in.SaleItemID)
		if err != nil {
			return err
		}
		plan, err = s.repo.GetPlanBySaleItem(ctx, in.SaleItemID)
		if err != nil {
			return err
		}
		existing, err := s.repo.ListSchedulesByPlan(ctx, plan.ID)
		if err != nil {
			return err
		}
		for _, row := range existing {
			if row.Status == SchedulePaid {
				return apperror.NewStateConflict("plan already has paid installments and cannot be rewritten")
			}
		}

		count := in.InstallmentCount
		freq := in.Frequency
		start := timex.DateOnly(in.StartDate)
		plan.InstallmentCount = &count
		plan.Frequency = &freq
		plan.StartDate = &start
		plan.EndDate = plan.ComputeEndDate()
		plan.TemplateID = nil
		plan.IsCustom = true
		if err := plan.Validate(ctx); err != nil {
			return err
		}
		plan.Touch()
		if err := s.repo.UpdatePlan(ctx, plan); err != nil {
			return err
		}

		if _, err := s.repo.DeletePendingSchedules(ctx, plan.ID); err != nil {
			return err
		}
		financed := item.SalePrice.Sub(item.DownPayment)
		amounts := types.SplitEven(financed, count)
		period := freq.PeriodMonths()
		for n := 1; n <= count; n++ {
			row := &PaymentSchedule{
				Base:          entity.NewBase(),
				PlanID:        plan.ID,
				PaymentNumber: n,
				DueDate:       timex.AddMonthsClamped(start, n*period),
				Amount:        amounts[n-1],
				Status:        SchedulePending,
				LateFee:       types.Zero(),
			}
			if err := s.repo.InsertSchedule(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// CanDeleteNode reports whether a location node is free of sale history.
// The location layer consults this before deleting subtrees.
func (s *Service) CanDeleteNode(ctx context.Context, nodeID id.ID) error {
	n, err := s.repo.CountItemsByNode(ctx, nodeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.NewStateConflict(
			fmt.Sprintf("property is referenced by %d sale items", n))
	}
	return nil
}
