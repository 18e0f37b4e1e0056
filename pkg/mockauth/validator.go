package mockauth

import (
	"encoding/json"
	"fmt"
)

// typeCheckers maps each field type to its runtime check against a
// decoded JSON value. One case per primitive type; dispatch is a lookup
// so adding a type is mechanical.
var typeCheckers = map[FieldType]func(any) bool{
	TypeString: func(v any) bool {
		_, ok := v.(string)
		return ok
	},
	TypeNumber: func(v any) bool {
		switch v.(type) {
		case float64, json.Number:
			return true
		default:
			return false
		}
	},
	TypeBoolean: func(v any) bool {
		_, ok := v.(bool)
		return ok
	},
}

// ValidateSignup checks a signup payload against the schema and returns
// the complete list of violations. All violations are collected before
// failing, never fail-fast: callers receive every message in one
// response.
//
// A field is missing when it is absent, null, or an empty string. A
// present value must match the declared type exactly; no coercion is
// performed, so the string "30" does not satisfy a number field.
func ValidateSignup(fields []Field, payload map[string]any) []string {
	var errs []string
	for _, f := range fields {
		v, present := payload[f.Name]
		if isMissing(v, present) {
			if f.Required {
				errs = append(errs, fmt.Sprintf("%s is required", f.Name))
			}
			continue
		}
		check := typeCheckers[f.Type]
		if check == nil || !check(v) {
			errs = append(errs, fmt.Sprintf("%s must be a %s", f.Name, f.Type))
		}
	}
	return errs
}

// isMissing reports whether a payload value counts as absent for
// required-field purposes.
func isMissing(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// CredentialErrors validates the email/password pair every signup
// carries regardless of the schema; login needs both to be stored.
func CredentialErrors(payload map[string]any) []string {
	var errs []string
	for _, name := range []string{"email", "password"} {
		v, present := payload[name]
		if isMissing(v, present) {
			errs = append(errs, fmt.Sprintf("%s is required", name))
			continue
		}
		if !typeCheckers[TypeString](v) {
			errs = append(errs, fmt.Sprintf("%s must be a %s", name, TypeString))
		}
	}
	return errs
}

// Credentials extracts the email/password strings from a payload that
// has already passed CredentialErrors.
func Credentials(payload map[string]any) (email, password string) {
	email, _ = payload["email"].(string)
	password, _ = payload["password"].(string)
	return email, password
}
