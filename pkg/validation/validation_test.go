package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "consulthub/pkg/domain-errors"
)

type companyRequest struct {
	LegalName    string `json:"legal_name" validate:"notblank,max=200"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	SizeBucket   string `json:"size_bucket" validate:"omitempty,oneof=micro small medium large enterprise"`
}

func TestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		require.NoError(t, Validate(&companyRequest{LegalName: "Acme Ltda", ContactEmail: "rh@acme.io"}))
	})

	t.Run("collects one message per field", func(t *testing.T) {
		err := Validate(&companyRequest{LegalName: "  ", ContactEmail: "nope", SizeBucket: "huge"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		fields := dErrors.FieldsOf(err)
		assert.Equal(t, "legal_name must not be blank", fields["legal_name"])
		assert.Equal(t, "contact_email must be a valid email", fields["contact_email"])
		assert.Contains(t, fields["size_bucket"], "must be one of")
	})
}
