package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"consulthub/internal/audit/models"
	auditstore "consulthub/internal/audit/store"
	identitymodels "consulthub/internal/identity/models"
	tenantmodels "consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/tx"
)

type QuerySuite struct {
	suite.Suite
	store    *auditstore.InMemory
	service  *Service
	firmA    id.ConsultancyID
	firmB    id.ConsultancyID
	companyA id.ClientCompanyID
}

func TestQuerySuite(t *testing.T) {
	suite.Run(t, new(QuerySuite))
}

func (s *QuerySuite) SetupTest() {
	s.store = auditstore.NewInMemory()
	s.service = New(s.store, tx.NewInMemory(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.firmA = id.ConsultancyID(uuid.New())
	s.firmB = id.ConsultancyID(uuid.New())
	s.companyA = id.ClientCompanyID(uuid.New())

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s.add("a1", s.firmA, id.ClientCompanyID{}, base)
	s.add("a2", s.firmA, s.companyA, base.Add(time.Hour))
	s.add("b1", s.firmB, id.ClientCompanyID{}, base.Add(2*time.Hour))
}

func (s *QuerySuite) add(recID string, firm id.ConsultancyID, company id.ClientCompanyID, at time.Time) {
	s.Require().NoError(s.store.Append(context.Background(), &models.Record{
		ID: recID, Action: models.ActionInsert, Entity: "client_companies", RecordID: recID,
		ConsultancyID: firm, ClientCompanyID: company, OccurredAt: at,
		Actor: identitymodels.Actor{Name: "actor " + recID},
	}))
}

func (s *QuerySuite) as(p identitymodels.Principal) context.Context {
	return identitymodels.WithPrincipal(context.Background(), p)
}

func ids(records []*models.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func (s *QuerySuite) TestConsultantPinnedToConsultancy() {
	records, err := s.service.Query(s.as(identitymodels.Consultant{ConsultancyID: s.firmA}), models.Filter{})
	s.Require().NoError(err)
	s.Equal([]string{"a2", "a1"}, ids(records))
}

func (s *QuerySuite) TestForeignFilterIsEmptyNotError() {
	records, err := s.service.Query(s.as(identitymodels.Consultant{ConsultancyID: s.firmA}), models.Filter{ConsultancyID: s.firmB})
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *QuerySuite) TestSuperadminUnrestricted() {
	records, err := s.service.Query(s.as(identitymodels.PlatformSuperadmin{}), models.Filter{})
	s.Require().NoError(err)
	s.Equal([]string{"b1", "a2", "a1"}, ids(records))
}

func (s *QuerySuite) TestCompanyAdminPinnedToCompany() {
	admin := identitymodels.CompanyUser{ConsultancyID: s.firmA, ClientCompanyID: s.companyA, Role: tenantmodels.CompanyRoleAdmin, Active: true}
	records, err := s.service.Query(s.as(admin), models.Filter{})
	s.Require().NoError(err)
	s.Equal([]string{"a2"}, ids(records))

	viewer := admin
	viewer.Role = tenantmodels.CompanyRoleViewer
	_, err = s.service.Query(s.as(viewer), models.Filter{})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *QuerySuite) TestInvalidRange() {
	now := time.Now()
	_, err := s.service.Query(s.as(identitymodels.PlatformSuperadmin{}), models.Filter{From: now, To: now})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *QuerySuite) TestExport() {
	var buf bytes.Buffer
	s.Require().NoError(s.service.Export(s.as(identitymodels.Consultant{ConsultancyID: s.firmA}), models.Filter{}, &buf))

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Audit")
	s.Require().NoError(err)
	s.Len(rows, 3)
}
