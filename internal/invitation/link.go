package invitation

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "onboarding/pkg/errors"
)

// LinkClaims carries the order identifiers inside the signed invitation token.
type LinkClaims struct {
	OC string `json:"oc"`
	OS string `json:"os"`
	SN string `json:"sn"`
	jwt.RegisteredClaims
}

// LinkBuilder signs and parses shareable invitation links.
type LinkBuilder struct {
	baseURL    string
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewLinkBuilder creates a link builder. baseURL is the public wizard
// entry point, e.g. https://suppliers.example.com/invited.
func NewLinkBuilder(baseURL string, secret string, expiration time.Duration) *LinkBuilder {
	return &LinkBuilder{
		baseURL:    baseURL,
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// Build produces the full invitation URL for a created order. The order
// identifiers travel both as plain query params (the wizard state reads
// them) and inside a signed token that the entry endpoint verifies.
func (b *LinkBuilder) Build(oc, os, sn string) (string, error) {
	now := b.now()
	claims := LinkClaims{
		OC: oc,
		OS: os,
		SN: sn,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(b.secret)
	if err != nil {
		return "", fmt.Errorf("sign invitation token: %w", err)
	}

	params := url.Values{}
	params.Set("sn", sn)
	params.Set("oc", oc)
	params.Set("os", os)
	params.Set("token", signed)

	return b.baseURL + "?" + params.Encode(), nil
}

// Parse verifies a signed invitation token and returns its claims.
func (b *LinkBuilder) Parse(tokenString string) (*LinkClaims, error) {
	claims := &LinkClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrLinkExpired
		}
		return nil, apperrors.ErrInvalidLink
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidLink
	}
	return claims, nil
}
