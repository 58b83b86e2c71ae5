package auth

import (
	"fmt"
	"time"

	"quiznufi-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "quiznufi"

// Claims carry the account fields needed to rebuild a session identity
// without a store lookup.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{hmac: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(account domain.Account) (string, error) {
	now := t.now()
	claims := &Claims{
		Email: account.Email,
		Name:  account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.hmac)
}

// Parse verifies a token and returns the account it was issued for.
func (t *TokenIssuer) Parse(token string) (domain.Account, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return t.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return domain.Account{}, fmt.Errorf("%w: invalid token", domain.ErrAuthFailed)
	}
	return domain.Account{ID: claims.Subject, Email: claims.Email, Username: claims.Name}, nil
}
