package auth

import (
	"testing"
	"time"

	"quiznufi-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenCarriesAccountInSubject(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	account := domain.Account{ID: "u1", Email: "ama@example.com", Username: "ama"}

	token, err := issuer.Issue(account)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}); err != nil {
		t.Fatalf("parse claims: %v", err)
	}
	if claims.Subject != "u1" || claims.Issuer != "quiznufi" {
		t.Fatalf("expected subject u1 from quiznufi, got %q from %q", claims.Subject, claims.Issuer)
	}

	got, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != account {
		t.Fatalf("expected %+v, got %+v", account, got)
	}
}

func TestTokenWithoutSubjectRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	claims := &Claims{
		Email:            "ama@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "quiznufi", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Fatalf("expected token without subject to be rejected")
	}
}
