// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/habitloop/habitloop/internal/auth"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with underscore and digits", "alice_42", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz_abcdef", true},
		{"starts with digit", "1alice", true},
		{"starts with underscore", "_alice", true},
		{"contains space", "ali ce", true},
		{"contains hyphen", "ali-ce", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@example.com", false},
		{"valid subdomain", "alice@mail.example.co.uk", false},
		{"empty", "", true},
		{"missing at", "alice.example.com", true},
		{"missing domain", "alice@", true},
		{"missing tld", "alice@example", true},
		{"contains space", "ali ce@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, auth.ValidatePassword("longenough"))
	assert.Error(t, auth.ValidatePassword("short"))
	assert.Error(t, auth.ValidatePassword(""))
}

func TestIdentity_FailureAccounting(t *testing.T) {
	identity := &auth.Identity{Username: "alice"}

	t.Run("failures below threshold do not lock", func(t *testing.T) {
		for range auth.LockoutThreshold - 1 {
			identity.RecordFailure()
		}
		assert.False(t, identity.IsLocked())
		assert.Nil(t, identity.LockedUntil)
	})

	t.Run("reaching threshold locks the identity", func(t *testing.T) {
		identity.RecordFailure()
		assert.True(t, identity.IsLocked())
		assert.NotNil(t, identity.LockedUntil)
		assert.True(t, identity.LockedUntil.After(time.Now()))
	})

	t.Run("success resets the counter and lockout", func(t *testing.T) {
		identity.RecordSuccess()
		assert.Equal(t, 0, identity.FailedAttempts)
		assert.Nil(t, identity.LockedUntil)
		assert.False(t, identity.IsLocked())
	})
}
