package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "consulthub/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseClientCompanyID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseClientCompanyID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseConsultancyID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseConsultancyID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ConsultancyID(validUUID), id)
	})
}

func TestParseSubjectID(t *testing.T) {
	_, err := ParseSubjectID("   ")
	require.Error(t, err)

	subject, err := ParseSubjectID(" auth0|abc ")
	require.NoError(t, err)
	assert.Equal(t, SubjectID("auth0|abc"), subject)
}

// TestTypeDistinction verifies the compiler enforces type safety.
func TestTypeDistinction(t *testing.T) {
	consultancyID := ConsultancyID(uuid.New())
	companyID := ClientCompanyID(uuid.New())

	// var _ ConsultancyID = companyID // compile error

	assert.NotEqual(t, uuid.UUID(consultancyID), uuid.UUID(companyID))
	assert.False(t, consultancyID.IsNil())
	assert.True(t, ClientCompanyID{}.IsNil())
}
