package plan

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"consulthub/internal/subscription/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

// DefaultPlans mirrors the catalog seeded by the plans migration.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{
			ID:           id.PlanID(uuid.MustParse("7d1c3f7e-52a4-4b0e-9a55-3d1f0b8c2a01")),
			Code:         "starter",
			Name:         "Starter",
			MonthlyPrice: decimal.RequireFromString("49.00"),
			AnnualPrice:  decimal.RequireFromString("490.00"),
			Active:       true,
		},
		{
			ID:           id.PlanID(uuid.MustParse("7d1c3f7e-52a4-4b0e-9a55-3d1f0b8c2a02")),
			Code:         "professional",
			Name:         "Professional",
			MonthlyPrice: decimal.RequireFromString("129.00"),
			AnnualPrice:  decimal.RequireFromString("1290.00"),
			Active:       true,
		},
		{
			ID:           id.PlanID(uuid.MustParse("7d1c3f7e-52a4-4b0e-9a55-3d1f0b8c2a03")),
			Code:         "enterprise",
			Name:         "Enterprise",
			MonthlyPrice: decimal.RequireFromString("349.00"),
			AnnualPrice:  decimal.RequireFromString("3490.00"),
			Active:       true,
		},
	}
}

// InMemory is a read-only plan catalog.
type InMemory struct {
	mu    sync.RWMutex
	plans map[id.PlanID]models.Plan
}

// NewInMemory returns a catalog holding plans, or DefaultPlans when none are
// given.
func NewInMemory(plans ...models.Plan) *InMemory {
	if len(plans) == 0 {
		plans = DefaultPlans()
	}
	s := &InMemory{plans: make(map[id.PlanID]models.Plan, len(plans))}
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	return s
}

func (s *InMemory) FindByID(_ context.Context, planID id.PlanID) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.plans[planID]; ok {
		return &p, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListActive returns the selectable plans, cheapest first.
func (s *InMemory) ListActive(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if p.Active {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthlyPrice.LessThan(out[j].MonthlyPrice) })
	return out, nil
}
