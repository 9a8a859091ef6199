package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipagency/backend/internal/interfaces/http/dto"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	require.NotNil(t, v)

	type amountPayload struct {
		Amount decimal.Decimal `json:"amount" binding:"required,gt=0"`
	}

	t.Run("passes positive decimal", func(t *testing.T) {
		err := v.Struct(amountPayload{Amount: decimal.NewFromInt(100)})
		assert.NoError(t, err)
	})

	t.Run("rejects zero decimal with json field name", func(t *testing.T) {
		err := v.Struct(amountPayload{Amount: decimal.Zero})
		require.Error(t, err)

		var validationErrors validator.ValidationErrors
		require.ErrorAs(t, err, &validationErrors)
		require.Len(t, validationErrors, 1)
		assert.Equal(t, "amount", validationErrors[0].Field())
	})

	t.Run("rejects negative decimal", func(t *testing.T) {
		err := v.Struct(amountPayload{Amount: decimal.NewFromInt(-5)})
		assert.Error(t, err)
	})
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	t.Run("builds per-field details", func(t *testing.T) {
		type payload struct {
			ReceiptID string          `json:"receipt_id" binding:"required,uuid"`
			Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
		}

		err := v.Struct(payload{ReceiptID: "nope"})
		require.Error(t, err)

		resp := FormatValidationErrors(err)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Len(t, resp.Error.Details, 2)

		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "receipt_id")
		assert.Contains(t, fields, "amount")
	})

	t.Run("falls back to raw message for other errors", func(t *testing.T) {
		resp := FormatValidationErrors(errors.New("unexpected EOF"))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "unexpected EOF", resp.Error.Message)
		assert.Empty(t, resp.Error.Details)
	})
}
