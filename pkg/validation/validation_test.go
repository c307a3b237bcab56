package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "credentia/pkg/domain-errors"
)

type sample struct {
	Name  string `json:"student_name" validate:"notblank,max=8"`
	Email string `json:"student_email,omitempty" validate:"omitempty,email"`
	Code  string `json:"code" validate:"required,oneof=a b"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     sample
		wantMsg string
	}{
		{"valid", sample{Name: "Alice", Email: "a@x.io", Code: "a"}, ""},
		{"empty email skipped", sample{Name: "Alice", Code: "b"}, ""},
		{"blank", sample{Name: "  ", Code: "a"}, "student_name must not be blank"},
		{"too long", sample{Name: strings.Repeat("x", 9), Code: "a"}, "student_name must be at most 8 characters"},
		{"bad email", sample{Name: "Alice", Email: "nope", Code: "a"}, "student_email must be a valid email"},
		{"required", sample{Name: "Alice"}, "code is required"},
		{"other tag", sample{Name: "Alice", Code: "z"}, "code is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}
