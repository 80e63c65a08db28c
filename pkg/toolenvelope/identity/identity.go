// Package identity resolves the acting principal for a tool request
// (§4.H rule 3): a bearer JWT's client claim, falling back to a
// session identifier, falling back to "anonymous".
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of JWT claims the tool envelope cares about,
// mirroring core/pkg/identity.IdentityClaims but narrowed to the
// client-identity field actor resolution needs.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id,omitempty"`
}

// Validator verifies a bearer token and returns its claims.
type Validator interface {
	Validate(token string) (*Claims, error)
}

// KeyFunc backed validator, mirroring core/pkg/identity.TokenManager's
// use of jwt.ParseWithClaims with a KeySet-provided key function.
type JWTValidator struct {
	KeyFunc jwt.Keyfunc
}

func NewJWTValidator(keyFunc jwt.Keyfunc) *JWTValidator {
	return &JWTValidator{KeyFunc: keyFunc}
}

func (v *JWTValidator) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, v.KeyFunc)
	if err != nil {
		return nil, fmt.Errorf("identity: parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}

// ResolveActor implements §4.H rule 3: actor = authInfo.clientId or
// session:<id> or anonymous. A bearer token that fails validation is
// treated the same as an absent one — it falls through to the session
// or anonymous identity rather than failing the request; the access
// gate decides admission, not token resolution.
func ResolveActor(bearerToken, sessionID string, validator Validator) string {
	if bearerToken != "" && validator != nil {
		if claims, err := validator.Validate(bearerToken); err == nil && claims.ClientID != "" {
			return claims.ClientID
		}
	}
	if sessionID != "" {
		return "session:" + sessionID
	}
	return "anonymous"
}
