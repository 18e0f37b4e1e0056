package mockauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSignupAccumulatesErrors(t *testing.T) {
	fields := []Field{
		{Name: "email", Type: TypeString, Required: true},
		{Name: "username", Type: TypeString, Required: true},
	}

	tests := []struct {
		name    string
		payload map[string]any
		want    []string
	}{
		{
			name:    "one required field missing",
			payload: map[string]any{"email": "a@b.com"},
			want:    []string{"username is required"},
		},
		{
			name:    "empty string counts as missing",
			payload: map[string]any{"email": "", "username": "bob"},
			want:    []string{"email is required"},
		},
		{
			name:    "null counts as missing",
			payload: map[string]any{"email": nil, "username": "bob"},
			want:    []string{"email is required"},
		},
		{
			name:    "both fields wrong type yields two messages",
			payload: map[string]any{"email": float64(1), "username": true},
			want:    []string{"email must be a string", "username must be a string"},
		},
		{
			name:    "valid payload",
			payload: map[string]any{"email": "a@b.com", "username": "bob"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSignup(fields, tt.payload))
		})
	}
}

func TestValidateSignupTypeChecks(t *testing.T) {
	fields := []Field{
		{Name: "email", Type: TypeString, Required: true},
		{Name: "age", Type: TypeNumber, Required: false},
		{Name: "active", Type: TypeBoolean, Required: false},
	}

	// A string "30" is not type number; no coercion happens.
	errs := ValidateSignup(fields, map[string]any{"email": "a@b.com", "age": "30"})
	assert.Equal(t, []string{"age must be a number"}, errs)

	// Optional fields may be absent.
	errs = ValidateSignup(fields, map[string]any{"email": "a@b.com"})
	assert.Nil(t, errs)

	errs = ValidateSignup(fields, map[string]any{
		"email":  "a@b.com",
		"age":    float64(30),
		"active": true,
	})
	assert.Nil(t, errs)

	errs = ValidateSignup(fields, map[string]any{"email": "a@b.com", "active": "yes"})
	assert.Equal(t, []string{"active must be a boolean"}, errs)
}

func TestCredentialErrors(t *testing.T) {
	assert.Nil(t, CredentialErrors(map[string]any{"email": "a@b.com", "password": "pw"}))

	errs := CredentialErrors(map[string]any{"email": "a@b.com"})
	assert.Equal(t, []string{"password is required"}, errs)

	errs = CredentialErrors(map[string]any{"email": float64(3), "password": ""})
	assert.Equal(t, []string{"email must be a string", "password is required"}, errs)
}

func TestSanitizedStripsPassword(t *testing.T) {
	rec := &UserRecord{
		ID:     "u1",
		AuthID: "auth1",
		Email:  "a@b.com",
		Data: map[string]any{
			"email":    "a@b.com",
			"password": "secret",
			"age":      float64(30),
		},
	}

	clean := rec.Sanitized()
	assert.NotContains(t, clean.Data, "password")
	assert.Equal(t, "a@b.com", clean.Data["email"])
	// The original record keeps its data untouched.
	assert.Contains(t, rec.Data, "password")
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{
			name: "valid",
			def: Definition{Endpoint: "shop-users", Fields: []Field{
				{Name: "email", Type: TypeString, Required: true},
				{Name: "age", Type: TypeNumber},
			}},
		},
		{
			name:    "missing endpoint",
			def:     Definition{},
			wantErr: true,
		},
		{
			name:    "endpoint with slash",
			def:     Definition{Endpoint: "a/b"},
			wantErr: true,
		},
		{
			name: "duplicate field name",
			def: Definition{Endpoint: "users", Fields: []Field{
				{Name: "email", Type: TypeString},
				{Name: "email", Type: TypeString},
			}},
			wantErr: true,
		},
		{
			name: "unknown field type",
			def: Definition{Endpoint: "users", Fields: []Field{
				{Name: "tags", Type: "array"},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
