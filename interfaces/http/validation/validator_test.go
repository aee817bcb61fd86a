package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

type sample struct {
	Name      *string  `json:"name" validate:"omitempty,max=10"`
	Topics    []string `json:"topics" validate:"required,min=2,dive,notblank,max=5"`
	Threshold *float64 `json:"threshold" validate:"omitempty,gte=0,lte=1"`
}

func ptr[T any](v T) *T { return &v }

func TestValidate(t *testing.T) {
	v := GetValidator()

	tests := []struct {
		name   string
		input  sample
		fields []string
	}{
		{"valid", sample{Topics: []string{"AI", "SEO"}, Threshold: ptr(0.5)}, nil},
		{"missing topics", sample{}, []string{"topics"}},
		{"too few topics", sample{Topics: []string{"AI"}}, []string{"topics"}},
		{"blank topic", sample{Topics: []string{"AI", "   "}}, []string{"topics[1]"}},
		{"long topic", sample{Topics: []string{"AI", "abcdef"}}, []string{"topics[1]"}},
		{"long name", sample{Name: ptr(strings.Repeat("x", 11)), Topics: []string{"AI", "SEO"}}, []string{"name"}},
		{"threshold out of range", sample{Topics: []string{"AI", "SEO"}, Threshold: ptr(1.5)}, []string{"threshold"}},
		{"zero threshold", sample{Topics: []string{"AI", "SEO"}, Threshold: ptr(0.0)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

			appErr := apperrors.GetAppError(err)
			fields, ok := appErr.Details["fields"].([]FieldError)
			require.True(t, ok)
			got := make([]string, len(fields))
			for i, f := range fields {
				got[i] = f.Field
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestErrorMessageUnits(t *testing.T) {
	err := GetValidator().Validate(sample{Topics: []string{"AI"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 items")
}
