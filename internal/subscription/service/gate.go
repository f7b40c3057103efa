package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/subscription/models"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

// Gate decides whether a principal may reach subscription-gated routes.
type Gate struct {
	subscriptions SubscriptionStore
	tx            tx.Runner
	serviceConfig
}

func NewGate(subscriptions SubscriptionStore, txRunner tx.Runner, opts ...Option) *Gate {
	return &Gate{
		subscriptions: subscriptions,
		tx:            txRunner,
		serviceConfig: newConfig(opts),
	}
}

// Check gates consultants on an active subscription. Superadmins and company
// users always pass. A consultancy without an active subscription is sent to
// plan selection; the error return is reserved for lookup failures.
func (g *Gate) Check(ctx context.Context, principal identitymodels.Principal) (decision models.Decision, err error) {
	ctx, span := g.tracer.Start(ctx, "subscription.Gate.Check")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.String("subscription.status", string(decision.Status)),
				attribute.Bool("subscription.allowed", decision.Allowed),
			)
		}
		span.End()
	}()

	consultant, ok := principal.(identitymodels.Consultant)
	if !ok {
		return models.Decision{Allowed: true}, nil
	}

	status := models.StatusNone
	err = g.tx.RunInTx(ctx, func(ctx context.Context) error {
		sub, err := g.subscriptions.FindByConsultancy(ctx, consultant.ConsultancyID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return err
		}
		status = sub.Status
		return nil
	})
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}

	decision = models.Decision{Allowed: status == models.StatusActive, Status: status}
	if !decision.Allowed {
		decision.RedirectTo = httputil.PlanSelectionPath
		g.logger.InfoContext(ctx, "subscription gate redirect",
			"consultancy_id", consultant.ConsultancyID,
			"status", status,
		)
	}
	if g.metrics != nil {
		g.metrics.IncGateDecision(string(status), decision.Allowed)
	}
	return decision, nil
}
