package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ConsultanciesCreated   prometheus.Counter
	ClientCompaniesCreated prometheus.Counter
	CompanyUsersCreated    prometheus.Counter
	TenantMismatches       *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ConsultanciesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_consultancies_created_total",
			Help: "Total number of consultancies created",
		}),
		ClientCompaniesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_client_companies_created_total",
			Help: "Total number of client companies created",
		}),
		CompanyUsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "consulthub_company_users_created_total",
			Help: "Total number of company users created",
		}),
		TenantMismatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consulthub_tenant_mismatches_total",
			Help: "Requests refused because the record lies outside the caller's tenant",
		}, []string{"entity"}),
	}
}

func (m *Metrics) IncConsultancyCreated() {
	m.ConsultanciesCreated.Inc()
}

func (m *Metrics) IncClientCompanyCreated() {
	m.ClientCompaniesCreated.Inc()
}

func (m *Metrics) IncCompanyUserCreated() {
	m.CompanyUsersCreated.Inc()
}

func (m *Metrics) IncTenantMismatch(entity string) {
	m.TenantMismatches.WithLabelValues(entity).Inc()
}
