package ownership

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
)

var (
	ErrInvalidCapabilityToken  = errors.New("ownership: invalid capability token")
	ErrCapabilityOwnerMismatch = errors.New("ownership: capability token does not match the current owner")
)

// IssueCapabilityToken mints a signed, time-bounded token proving
// r.Owner() at the moment of issuance. It lets an out-of-process
// caller (a CLI, an admin console) authenticate owner-only calls
// across a restart without re-deriving the address each time.
func (r *Registry) IssueCapabilityToken(secret []byte, ttl time.Duration) (string, error) {
	owner := r.Owner()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"owner": string(owner),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// VerifyCapabilityToken checks a token's signature and expiry and
// confirms its embedded owner address still matches the registry's
// current owner. A token minted before an ownership transfer no
// longer authorizes anything once the transfer completes.
func (r *Registry) VerifyCapabilityToken(tokenString string, secret []byte) (geyser.Address, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCapabilityToken
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return geyser.NullAddress, ErrInvalidCapabilityToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return geyser.NullAddress, ErrInvalidCapabilityToken
	}
	ownerClaim, ok := claims["owner"].(string)
	if !ok {
		return geyser.NullAddress, ErrInvalidCapabilityToken
	}

	tokenOwner := geyser.Address(ownerClaim)
	if tokenOwner != r.Owner() {
		return geyser.NullAddress, ErrCapabilityOwnerMismatch
	}
	return tokenOwner, nil
}
