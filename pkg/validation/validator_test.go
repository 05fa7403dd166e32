package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Code     string `json:"code" validate:"omitempty,otp"`
	Priority string `json:"priority" validate:"omitempty,priority"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestRegister_AliasesAndFieldNames(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.Struct(sample{Email: "a@b.co", Password: "password1", Code: "012345", Priority: "medio"}))

	err := v.Struct(sample{Email: "nope", Password: "short", Code: "12a456", Priority: "urgent"})
	details := ToDetails(err)
	assert.Equal(t, map[string]string{
		"email":    "must be a valid email",
		"password": "must be between 8 and 72 characters long",
		"code":     "must be a 6 digit code",
		"priority": "must be one of: low, medium, high",
	}, details)
}

func TestToDetails_JSONErrors(t *testing.T) {
	var s sample
	err := json.Unmarshal([]byte(`{"email": 5}`), &s)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
