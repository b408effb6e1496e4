// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

// Package habit holds the habit catalog and the completion ledger.
//
// The ledger's core invariant: at most one Completion exists per
// (habit, identity, calendar day) triple. The storage layer enforces it
// with a unique constraint; the application never relies on a
// check-then-insert sequence.
//
// Gamification values (streak, XP, level) are a derived projection over
// the ledger, recomputed on demand and never persisted.
package habit
