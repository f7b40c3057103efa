package main

import (
	"context"
	"fmt"

	auditservice "consulthub/internal/audit/service"
	auditstore "consulthub/internal/audit/store"
	"consulthub/internal/audit/outbox"
	outboxstore "consulthub/internal/audit/outbox/store"
	"consulthub/internal/audit/writer"
	identityservice "consulthub/internal/identity/service"
	"consulthub/internal/identity/store/consultancyuser"
	impersonationservice "consulthub/internal/impersonation/service"
	"consulthub/internal/impersonation/store/session"
	"consulthub/internal/platform/database"
	subscriptionservice "consulthub/internal/subscription/service"
	"consulthub/internal/subscription/store/payment"
	"consulthub/internal/subscription/store/plan"
	"consulthub/internal/subscription/store/subscription"
	tenantservice "consulthub/internal/tenant/service"
	"consulthub/internal/tenant/store/clientcompany"
	"consulthub/internal/tenant/store/companyuser"
	"consulthub/internal/tenant/store/consultancy"
	"consulthub/pkg/platform/tx"
)

type consultancyUserStore interface {
	identityservice.ConsultancyUserStore
	tenantservice.ConsultancyUserStore
}

type companyUserStore interface {
	identityservice.CompanyUserStore
	tenantservice.CompanyUserStore
}

type auditRecordStore interface {
	writer.Store
	auditservice.Store
}

// storage is the persistence backing a process: PostgreSQL when a database
// URL is configured, in-memory stores otherwise.
type storage struct {
	pool             *database.Pool
	tx               tx.Runner
	consultancies    tenantservice.ConsultancyStore
	companies        tenantservice.ClientCompanyStore
	companyUsers     companyUserStore
	consultancyUsers consultancyUserStore
	plans            subscriptionservice.PlanStore
	subscriptions    subscriptionservice.SubscriptionStore
	payments         subscriptionservice.PaymentStore
	sessions         impersonationservice.Store
	audits           auditRecordStore
	outbox           outbox.Store
}

func openStorage(ctx context.Context, a *app) (*storage, error) {
	pool, err := database.New(ctx, database.Config{
		URL:             a.cfg.Database.URL,
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if pool == nil {
		if a.cfg.IsProduction() {
			return nil, fmt.Errorf("database.url is required in production")
		}
		a.logger.Warn("no database configured, using in-memory stores")
		return &storage{
			tx:               tx.NewInMemory(),
			consultancies:    consultancy.NewInMemory(),
			companies:        clientcompany.NewInMemory(),
			companyUsers:     companyuser.NewInMemory(),
			consultancyUsers: consultancyuser.NewInMemory(),
			plans:            plan.NewInMemory(),
			subscriptions:    subscription.NewInMemory(),
			payments:         payment.NewInMemory(),
			sessions:         session.NewInMemory(),
			audits:           auditstore.NewInMemory(),
		}, nil
	}

	db := pool.DB()
	return &storage{
		pool:             pool,
		tx:               database.NewTxManager(db, a.cfg.Database.TxTimeout),
		consultancies:    consultancy.NewPostgres(db),
		companies:        clientcompany.NewPostgres(db),
		companyUsers:     companyuser.NewPostgres(db),
		consultancyUsers: consultancyuser.NewPostgres(db),
		plans:            plan.NewPostgres(db),
		subscriptions:    subscription.NewPostgres(db),
		payments:         payment.NewPostgres(db),
		sessions:         session.NewPostgres(db),
		audits:           auditstore.NewPostgres(db),
		outbox:           outboxstore.NewPostgres(db),
	}, nil
}

func (s *storage) Close() error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Close()
}
