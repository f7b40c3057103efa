// Package service tracks impersonation sessions and authorizes requests made
// on behalf of an impersonated principal.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	auditmodels "consulthub/internal/audit/models"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	impersonationmetrics "consulthub/internal/impersonation/metrics"
	"consulthub/internal/impersonation/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, session *models.Session) error
	End(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.ImpersonationSessionID) (*models.Session, error)
	FindOpenByOperator(ctx context.Context, operatorID id.ConsultancyUserID) (*models.Session, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Session, error)
}

// PrincipalResolver resolves the target subject the same way a login would.
type PrincipalResolver interface {
	Resolve(ctx context.Context, subject id.SubjectID) (identitymodels.Principal, error)
}

// AuditRecorder writes the audit record of a governed mutation.
type AuditRecorder interface {
	Record(ctx context.Context, e writer.Entry) (*auditmodels.Record, error)
}

const entitySession = "impersonation_sessions"

type Service struct {
	sessions Store
	resolver PrincipalResolver
	audit    AuditRecorder
	tx       tx.Runner
	logger   *slog.Logger
	metrics  *impersonationmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *impersonationmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(sessions Store, resolver PrincipalResolver, audit AuditRecorder, txRunner tx.Runner, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		resolver: resolver,
		audit:    audit,
		tx:       txRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Begin opens a session for the calling operator acting as target. Retrying
// for the same target returns the open session; an operator holds at most
// one open session.
func (s *Service) Begin(ctx context.Context, target id.SubjectID, justification string) (*models.Session, error) {
	operator, err := operatorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := models.NormalizeJustification(justification); err != nil {
		return nil, err
	}
	if target.IsNil() {
		return nil, dErrors.NewValidation("target is required", map[string]string{"target_subject_id": "is required"})
	}
	now := requestcontext.Now(ctx)

	principal, err := s.resolver.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	session, err := models.NewSession(id.ImpersonationSessionID(uuid.New()), operator, principal, justification, now)
	if err != nil {
		return nil, err
	}

	ctx = requestcontext.WithTenantScope(ctx, requestcontext.PlatformScope())
	created := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		open, err := s.sessions.FindOpenByOperator(ctx, operator.UserID)
		switch {
		case err == nil:
			if open.TargetSubject == target {
				session = open
				return nil
			}
			return dErrors.New(dErrors.CodeConflict, "operator already has an open impersonation session")
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load impersonation sessions")
		}

		if err := s.sessions.Create(ctx, session); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return errConcurrentBegin
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create impersonation session")
		}
		created = true
		_, err = s.audit.Record(ctx, writer.Entry{
			Action:          auditmodels.ActionInsert,
			Entity:          entitySession,
			RecordID:        session.ID.String(),
			ConsultancyID:   session.ConsultancyID,
			ClientCompanyID: session.ClientCompanyID,
			After:           session,
			Description:     "impersonation started: " + session.Justification,
		})
		return err
	})
	if errors.Is(err, errConcurrentBegin) {
		session, err = s.rivalSession(ctx, operator.UserID, target)
	}
	if err != nil {
		return nil, err
	}

	if created {
		if s.metrics != nil {
			s.metrics.IncSessionStarted()
		}
		s.logger.InfoContext(ctx, "impersonation started",
			"log_type", "audit",
			"session_id", session.ID,
			"operator_id", operator.UserID,
			"target_subject", session.TargetSubject,
			"target_type", session.TargetType,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return session, nil
}

// errConcurrentBegin marks a Begin that lost the race on the open-session
// index. The failed transaction is discarded before the winner is re-read.
var errConcurrentBegin = errors.New("concurrent impersonation begin")

// rivalSession returns the session opened by a concurrent Begin when it
// targets the same subject.
func (s *Service) rivalSession(ctx context.Context, operatorID id.ConsultancyUserID, target id.SubjectID) (*models.Session, error) {
	var open *models.Session
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		open, err = s.sessions.FindOpenByOperator(ctx, operatorID)
		return err
	})
	switch {
	case err == nil && open.TargetSubject == target:
		return open, nil
	case err == nil, errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeConflict, "operator already has an open impersonation session")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load impersonation sessions")
	}
}

// End closes a session. Ending a closed session returns it unchanged.
func (s *Service) End(ctx context.Context, sessionID id.ImpersonationSessionID) (*models.Session, error) {
	if _, err := operatorFrom(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTenantScope(ctx, requestcontext.PlatformScope())

	var (
		session *models.Session
		ended   bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.sessions.FindByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "impersonation session not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load impersonation session")
		}
		before := *session
		if !session.End(now) {
			return nil
		}
		if err := s.sessions.End(ctx, session); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end impersonation session")
		}
		ended = true
		_, err = s.audit.Record(ctx, writer.Entry{
			Action:          auditmodels.ActionUpdate,
			Entity:          entitySession,
			RecordID:        session.ID.String(),
			ConsultancyID:   session.ConsultancyID,
			ClientCompanyID: session.ClientCompanyID,
			Before:          &before,
			After:           session,
			Description:     "impersonation ended",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if ended {
		if s.metrics != nil {
			s.metrics.IncSessionEnded()
		}
		s.logger.InfoContext(ctx, "impersonation ended",
			"log_type", "audit",
			"session_id", session.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return session, nil
}

// List returns sessions newest first. Platform superadmins only.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Session, error) {
	if _, err := operatorFrom(ctx); err != nil {
		return nil, err
	}
	ctx = requestcontext.WithTenantScope(ctx, requestcontext.PlatformScope())
	var sessions []*models.Session
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		sessions, err = s.sessions.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list impersonation sessions")
	}
	return sessions, nil
}

// Assume checks that sessionID is open and owned by the calling operator and
// returns the principal to act as. The target is resolved again so a
// deactivated account cannot be used through an old session.
func (s *Service) Assume(ctx context.Context, sessionID id.ImpersonationSessionID) (identitymodels.Principal, identitymodels.Impersonation, error) {
	operator, err := operatorFrom(ctx)
	if err != nil {
		return nil, identitymodels.Impersonation{}, err
	}

	var session *models.Session
	err = s.tx.RunInTx(requestcontext.WithTenantScope(ctx, requestcontext.PlatformScope()), func(ctx context.Context) error {
		var err error
		session, err = s.sessions.FindByID(ctx, sessionID)
		return err
	})
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, identitymodels.Impersonation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load impersonation session")
	}
	if session == nil || !session.IsOpen() || !session.OwnedBy(operator.UserID) {
		s.logger.WarnContext(ctx, "impersonation session refused",
			"session_id", sessionID,
			"operator_id", operator.UserID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, identitymodels.Impersonation{}, dErrors.New(dErrors.CodeForbidden, "impersonation session is not open")
	}

	target, err := s.resolver.Resolve(ctx, session.TargetSubject)
	if err != nil {
		return nil, identitymodels.Impersonation{}, err
	}
	if s.metrics != nil {
		s.metrics.IncImpersonatedRequest(string(target.Kind()))
	}
	return target, identitymodels.Impersonation{Operator: operator, SessionID: session.ID}, nil
}

// operatorFrom returns the calling superadmin. Impersonated requests cannot
// manage sessions.
func operatorFrom(ctx context.Context) (identitymodels.PlatformSuperadmin, error) {
	p, ok := identitymodels.FromContext(ctx)
	if !ok {
		return identitymodels.PlatformSuperadmin{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	operator, ok := p.(identitymodels.PlatformSuperadmin)
	if !ok {
		return identitymodels.PlatformSuperadmin{}, dErrors.New(dErrors.CodeForbidden, "platform operator access required")
	}
	if _, impersonating := identitymodels.ImpersonationFromContext(ctx); impersonating {
		return identitymodels.PlatformSuperadmin{}, dErrors.New(dErrors.CodeForbidden, "platform operator access required")
	}
	return operator, nil
}
