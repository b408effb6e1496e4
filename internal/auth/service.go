// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides registration, login, and identity resolution.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenIssuer
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenIssuer) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	return &Service{users: users, hasher: hasher, tokens: tokens}, nil
}

// dummyPasswordHash is used when an identity doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register validates the input, hashes the password, and persists a new
// identity. Returns an error wrapping ErrDuplicateIdentity if the username
// or email is already taken; the storage layer's unique constraints are the
// source of truth, not a prior lookup.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Identity, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := time.Now().UTC()
	identity := &Identity{
		ID:           ulid.Make(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, oops.Code("AUTH_DUPLICATE_IDENTITY").
				Wrap(ErrDuplicateIdentity)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create identity").
			Wrap(err)
	}

	return identity, nil
}

// Login authenticates an identity by email and password and returns the
// identity plus a freshly issued token.
// The external error is identical for unknown email, wrong password, and
// locked accounts to prevent account enumeration; uses constant-time
// operations so the timing profile matches as well.
func (s *Service) Login(ctx context.Context, email, password string) (*Identity, string, error) {
	identity, lookupErr := s.users.GetByEmail(ctx, strings.ToLower(email))

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	var targetHash string
	var identityExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			// Use dummy hash - still perform verification to maintain constant time
			targetHash = dummyPasswordHash
			identityExists = false
		} else {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get identity by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = identity.PasswordHash
		identityExists = true
	}

	// Always verify password (constant-time operation for timing attack prevention)
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// For dummy hash verification errors, just treat as invalid
		if !identityExists {
			return nil, "", invalidCredentials()
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	// If identity doesn't exist OR password invalid, return same error
	if !identityExists || !valid {
		if identityExists {
			// Record failure only for existing identities
			identity.RecordFailure()
			_ = s.users.Update(ctx, identity) //nolint:errcheck // Best effort
		}
		return nil, "", invalidCredentials()
	}

	// Check lockout AFTER password verification to maintain constant time.
	// Externally indistinguishable from bad credentials; the code is logged
	// server-side only.
	if identity.IsLocked() {
		return nil, "", invalidCredentials()
	}

	// Success - reset failure counter
	identity.RecordSuccess()

	// Re-hash legacy bcrypt credentials to argon2id
	if s.hasher.NeedsUpgrade(identity.PasswordHash) {
		newHash, hashErr := s.hasher.Hash(password)
		if hashErr == nil {
			identity.PasswordHash = newHash
		}
	}

	// Update identity with reset failure count (and possibly upgraded hash)
	// Ignore errors - login should succeed even if update fails
	_ = s.users.Update(ctx, identity) //nolint:errcheck // Best effort, login succeeds regardless

	token, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	return identity, token, nil
}

// GetIdentity resolves an identity by ID. Used by the auth gate after token
// verification; a token referencing a deleted identity yields ErrNotFound.
func (s *Service) GetIdentity(ctx context.Context, id ulid.ULID) (*Identity, error) {
	identity, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_IDENTITY_NOT_FOUND").Wrap(ErrNotFound)
		}
		return nil, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "get identity by id").
			Wrap(err)
	}
	return identity, nil
}

// VerifyToken verifies a bearer token and returns the identity it references.
func (s *Service) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.GetIdentity(ctx, id)
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
}
