// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package habit

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Completion is one entry in the ledger: a habit done on a calendar day.
// CompletedOn is always a UTC midnight produced by Day.
type Completion struct {
	ID          ulid.ULID
	HabitID     ulid.ULID
	UserID      ulid.ULID
	CompletedOn time.Time
	Value       *float64
	Notes       string
	CreatedAt   time.Time
}

// Day normalizes t to the UTC midnight of its calendar day. All ledger
// lookups and the unique constraint operate on this normalized form.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewCompletion builds a ledger entry for the given day.
func NewCompletion(habitID, userID ulid.ULID, day time.Time) *Completion {
	return &Completion{
		ID:          ulid.Make(),
		HabitID:     habitID,
		UserID:      userID,
		CompletedOn: Day(day),
		CreatedAt:   time.Now().UTC(),
	}
}

// CompletionRepository persists the completion ledger.
type CompletionRepository interface {
	// Create inserts a ledger entry. A unique violation on
	// (habit_id, user_id, completed_on) maps to ErrAlreadyCompleted.
	Create(ctx context.Context, c *Completion) error
	// Delete removes the entry for the given day and returns it. Returns
	// ErrNotFound when no entry exists.
	Delete(ctx context.Context, habitID, userID ulid.ULID, day time.Time) (*Completion, error)
	// ListForDay returns the identity's completions on the given day.
	ListForDay(ctx context.Context, userID ulid.ULID, day time.Time) ([]*Completion, error)
	// ListForHabit returns a habit's full history, most recent day first.
	ListForHabit(ctx context.Context, habitID ulid.ULID) ([]*Completion, error)
	// ListInRange returns the identity's completions with optional habit
	// and date filters, most recent day first. A zero time disables the
	// corresponding bound; a zero habitID disables the habit filter.
	ListInRange(ctx context.Context, userID ulid.ULID, habitID ulid.ULID, from, to time.Time) ([]*Completion, error)
	// DeleteByHabit removes every entry for the habit. Used by purge.
	DeleteByHabit(ctx context.Context, habitID ulid.ULID) error
}
