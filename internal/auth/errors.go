// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested identity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateIdentity is returned when a username or email is already taken.
var ErrDuplicateIdentity = errors.New("duplicate identity")
