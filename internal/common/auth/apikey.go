// internal/common/auth/apikey.go
package auth

import (
	"crypto/subtle"

	"tender-estimator/internal/common/errors"
)

// APIKeyValidator authenticates inbound requests against the configured
// caller-to-key map.
type APIKeyValidator struct {
	keys map[string]string
}

// NewAPIKeyValidator builds a validator from the caller->key config map.
func NewAPIKeyValidator(keys map[string]string) *APIKeyValidator {
	return &APIKeyValidator{keys: keys}
}

// Validate checks a presented bearer key and returns the caller identity it
// belongs to. Comparison is constant time per candidate key.
func (v *APIKeyValidator) Validate(presented string) (string, error) {
	if presented == "" {
		return "", errors.NewUnauthorizedError("missing API key")
	}

	for caller, key := range v.keys {
		if len(key) == len(presented) &&
			subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			return caller, nil
		}
	}

	return "", errors.NewUnauthorizedError("unknown API key")
}
