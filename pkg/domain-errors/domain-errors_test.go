package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestMessageFallsBackToCode() {
	s.Equal("client company not found", (&Error{Code: CodeTenantMismatch, Message: "client company not found"}).Error())
	s.Equal("subscription_inactive", (&Error{Code: CodeSubscriptionInactive}).Error())
}

func (s *DomainErrorsSuite) TestErrorsIsMatchesByCode() {
	s.Run("same code, different message", func() {
		s.True(errors.Is(New(CodeTenantMismatch, "company"), &Error{Code: CodeTenantMismatch}))
	})

	s.Run("different code", func() {
		s.False(errors.Is(New(CodeAccountInactive, "deactivated"), &Error{Code: CodeAccountNotProvisioned}))
	})

	s.Run("plain errors never match", func() {
		s.False((&Error{Code: CodeNotFound}).Is(errors.New("not_found")))
	})

	s.Run("through fmt wrapping", func() {
		err := fmt.Errorf("resolve principal: %w", New(CodeAccountNotProvisioned, "no account"))
		s.True(errors.Is(err, &Error{Code: CodeAccountNotProvisioned}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the first domain code", func() {
		wrapped := Wrap(New(CodeAuditWriteFailure, "audit store down"), CodeInternal, "create client company")
		s.True(HasCode(wrapped, CodeAuditWriteFailure))
		s.Equal("create client company", wrapped.Error())
	})

	s.Run("assigns the code to infrastructure errors", func() {
		root := errors.New("connection reset")
		wrapped := Wrap(root, CodeInternal, "load subscription")
		s.True(HasCode(wrapped, CodeInternal))
		s.True(errors.Is(wrapped, root))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.True(HasCode(New(CodeConflict, "open session exists"), CodeConflict))
	s.False(HasCode(New(CodeConflict, "open session exists"), CodeForbidden))
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.False(HasCode(nil, CodeNotFound))
}

func (s *DomainErrorsSuite) TestValidationFields() {
	s.Run("carries field messages", func() {
		err := NewValidation("invalid plan selection", map[string]string{"billing_cycle": "must be monthly or annual"})
		s.True(HasCode(err, CodeValidation))
		s.Equal("must be monthly or annual", FieldsOf(err)["billing_cycle"])
	})

	s.Run("wrap keeps fields", func() {
		err := Wrap(NewValidation("bad", map[string]string{"reason": "required"}), CodeInternal, "suspend failed")
		s.True(HasCode(err, CodeValidation))
		s.Equal("required", FieldsOf(err)["reason"])
	})

	s.Run("nil for other errors", func() {
		s.Nil(FieldsOf(errors.New("plain")))
		s.Nil(FieldsOf(New(CodeForbidden, "no")))
	})
}
