// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultTokenTTL bounds token exposure when no duration is configured.
const DefaultTokenTTL = 24 * time.Hour

// Token verification failures. Verify never panics on malformed input;
// every failure path wraps one of these sentinels.
var (
	ErrTokenMissing = errors.New("no token supplied")
	ErrTokenInvalid = errors.New("token is malformed or its signature is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims embeds the registered claim set plus the identity reference.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenIssuer mints and verifies stateless HS256-signed tokens. Tokens are
// never persisted server-side; the issuer holds only the signing secret, so
// rotating the secret invalidates all outstanding tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_SECRET_EMPTY").Errorf("signing secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl}, nil
}

// Issue produces a signed token embedding the identity ID and an expiry.
func (t *TokenIssuer) Issue(identityID ulid.ULID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: identityID.String(),
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded identity ID.
func (t *TokenIssuer) Verify(tokenString string) (ulid.ULID, error) {
	if tokenString == "" {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_MISSING").Wrap(ErrTokenMissing)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ulid.ULID{}, oops.Code("AUTH_TOKEN_EXPIRED").Wrap(ErrTokenExpired)
		}
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrTokenInvalid)
	}
	if !token.Valid {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrTokenInvalid)
	}

	id, parseErr := ulid.Parse(claims.UserID)
	if parseErr != nil {
		return ulid.ULID{}, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrTokenInvalid)
	}
	return id, nil
}
