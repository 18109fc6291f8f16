package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	Collection string `validate:"required"`
	BatchSize  int    `validate:"gt=0,lte=512"`
	Provider   string `validate:"oneof=gemini openai"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := TestStruct{Collection: "rag_collection", BatchSize: 32, Provider: "gemini"}

		err := ValidateStruct(&s)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		s := TestStruct{BatchSize: 32, Provider: "gemini"}

		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "Collection is required", fields["Collection"])
	})

	t.Run("batch size out of range", func(t *testing.T) {
		s := TestStruct{Collection: "c", BatchSize: 1000, Provider: "gemini"}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "BatchSize must be less than or equal to 512", fields["BatchSize"])
	})

	t.Run("unknown provider", func(t *testing.T) {
		s := TestStruct{Collection: "c", BatchSize: 1, Provider: "cohere"}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "Provider must be one of: gemini openai", fields["Provider"])
	})

	t.Run("non struct", func(t *testing.T) {
		err := ValidateStruct("not a struct")
		assert.Error(t, err)
		assert.False(t, IsValidationError(err))
	})
}

func TestNewValidationError(t *testing.T) {
	t.Run("creates validation error with field details", func(t *testing.T) {
		s := TestStruct{BatchSize: 0, Provider: ""}

		err := ValidateStruct(&s)
		require.Error(t, err)

		validationErr, ok := err.(*ValidationError)
		require.True(t, ok)

		assert.Equal(t, "Validation failed", validationErr.Message)
		assert.Contains(t, validationErr.Fields, "Collection")
		assert.Contains(t, validationErr.Fields, "BatchSize")
		assert.Contains(t, validationErr.Fields, "Provider")
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "Test validation error",
		Fields: map[string]string{
			"field1": "error1",
		},
	}

	assert.Equal(t, "Test validation error", err.Error())
}

func TestIsValidationError(t *testing.T) {
	t.Run("is validation error", func(t *testing.T) {
		err := &ValidationError{
			Message: "test",
			Fields:  map[string]string{},
		}

		assert.True(t, IsValidationError(err))
	})

	t.Run("is not validation error", func(t *testing.T) {
		assert.False(t, IsValidationError(assert.AnError))
	})
}

func TestGetValidationFields(t *testing.T) {
	t.Run("gets fields from validation error", func(t *testing.T) {
		fields := map[string]string{
			"field1": "error1",
			"field2": "error2",
		}
		err := &ValidationError{
			Message: "test",
			Fields:  fields,
		}

		assert.Equal(t, fields, GetValidationFields(err))
	})

	t.Run("returns nil for non-validation error", func(t *testing.T) {
		assert.Nil(t, GetValidationFields(assert.AnError))
	})
}
