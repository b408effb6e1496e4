// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package habit

import "errors"

// ErrNotFound is returned when a requested habit or completion does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyCompleted is returned when a completion already exists for the
// same (habit, identity, day) triple.
var ErrAlreadyCompleted = errors.New("already completed for this date")
