// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

// Package auth provides authentication primitives for HabitLoop.
//
// # Domain Types
//
// Identity represents a registered account. Identities should be created
// through Service.Register, which validates the username, email, and
// password and derives the password hash. Direct struct initialization
// bypasses validation and may create invalid state.
//
// # Services
//
// Service coordinates registration, login, and identity resolution.
// TokenIssuer mints and verifies the stateless signed tokens that
// authenticate protected requests; the server stores only the signing
// secret, never the token.
package auth
