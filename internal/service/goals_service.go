package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/analytics"
	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/money"
	"github.com/boddenberg/finance-store-go/internal/schema"
	"github.com/boddenberg/finance-store-go/internal/store"
)

const (
	// ruleFuture marks a timestamp that must lie after now.
	ruleFuture = "future"
	// ruleState marks an operation the record's status does not allow.
	ruleState = "state"
)

// ============================================================
// Goals
// ============================================================

// ListGoals returns every goal with its progress and the average progress.
func (s *FinanceService) ListGoals(ctx context.Context) (domain.GoalOverview, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListGoals")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return domain.GoalOverview{}, err
	}
	goals, err := db.Goals().Find(ctx, store.Query{SortBy: "deadline"})
	if err != nil {
		return domain.GoalOverview{}, err
	}

	views := make([]domain.GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, goalView(g))
	}
	return domain.GoalOverview{Goals: views, AverageProgress: analytics.AverageGoalProgress(goals)}, nil
}

func (s *FinanceService) GetGoal(ctx context.Context, id string) (domain.GoalView, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetGoal")
	defer span.End()
	span.SetAttributes(attribute.String("goal.id", id))

	db, err := s.db()
	if err != nil {
		return domain.GoalView{}, err
	}
	g, err := db.Goals().FindByID(ctx, id)
	if err != nil {
		return domain.GoalView{}, err
	}
	return goalView(g), nil
}

// CreateGoal stores a goal whose deadline lies in the future. An unset
// status starts as in_progress and an unset currency takes the default.
func (s *FinanceService) CreateGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateGoal")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return domain.Goal{}, err
	}
	if g.Deadline <= domain.Millis(db.Now()) {
		return domain.Goal{}, invalid(domain.CollectionGoals, "deadline", ruleFuture, "must be in the future")
	}
	if g.Status == "" {
		g.Status = domain.GoalInProgress
	}
	if g.Currency == "" {
		g.Currency = s.settings.DefaultCurrency
	}
	return db.Goals().Insert(ctx, g)
}

func (s *FinanceService) UpdateGoal(ctx context.Context, id string, fields store.Fields) (domain.Goal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateGoal")
	defer span.End()
	span.SetAttributes(attribute.String("goal.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Goal{}, err
	}
	return db.Goals().Patch(ctx, id, fields)
}

func (s *FinanceService) DeleteGoal(ctx context.Context, id string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteGoal")
	defer span.End()
	span.SetAttributes(attribute.String("goal.id", id))

	db, err := s.db()
	if err != nil {
		return err
	}
	return db.Goals().Remove(ctx, id)
}

// ContributeToGoal adds amount to the goal's current amount. The goal is
// marked completed when it reaches its target; contributions past the
// target, or to completed and cancelled goals, are rejected.
func (s *FinanceService) ContributeToGoal(ctx context.Context, id string, amount float64) (domain.GoalView, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ContributeToGoal")
	defer span.End()
	span.SetAttributes(attribute.String("goal.id", id), attribute.Float64("amount", amount))

	if amount <= 0 {
		return domain.GoalView{}, invalid(domain.CollectionGoals, "amount", schema.RuleMinimum, "must be greater than 0")
	}
	if !isCents(amount) {
		return domain.GoalView{}, invalid(domain.CollectionGoals, "amount", schema.RuleMultipleOf, "must be a multiple of 0.01")
	}

	db, err := s.db()
	if err != nil {
		return domain.GoalView{}, err
	}

	var updated domain.Goal
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		g, err := db.Goals().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if g.Status == domain.GoalCompleted || g.Status == domain.GoalCancelled {
			return invalid(domain.CollectionGoals, "status", ruleState,
				"cannot contribute to a "+string(g.Status)+" goal")
		}

		target := decimal.NewFromFloat(g.TargetAmount)
		next := decimal.NewFromFloat(g.CurrentAmount).Add(decimal.NewFromFloat(amount))
		if next.GreaterThan(target) {
			return invalid(domain.CollectionGoals, "currentAmount", schema.RuleCompare,
				"contribution exceeds target by "+money.Format(next.Sub(target), g.Currency))
		}
		status := domain.GoalInProgress
		if next.Equal(target) {
			status = domain.GoalCompleted
		}

		updated, err = db.Goals().Patch(ctx, id, store.Fields{
			"currentAmount": toFloat(next),
			"status":        status,
		})
		return err
	})
	if err != nil {
		return domain.GoalView{}, err
	}

	if updated.Status == domain.GoalCompleted {
		s.logger.Info("goal completed", zap.String("goal_id", id))
	}
	return goalView(updated), nil
}

func goalView(g domain.Goal) domain.GoalView {
	return domain.GoalView{Goal: g, Progress: analytics.GoalProgress(g)}
}
