// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package habit

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Category groups habits for display and filtering.
type Category string

// Known categories.
const (
	CategoryFitness Category = "fitness"
	CategoryHealth  Category = "health"
	CategoryOther   Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFitness, CategoryHealth, CategoryOther:
		return true
	}
	return false
}

// Kind distinguishes recurring habits from discrete workouts.
type Kind string

// Known kinds.
const (
	KindHabit   Kind = "habit"
	KindWorkout Kind = "workout"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindHabit || k == KindWorkout
}

// Frequency is the cadence a habit is expected on.
type Frequency string

// Known frequencies.
const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// Unit is the measurement unit for a habit's target value.
type Unit string

// Known units.
const (
	UnitReps    Unit = "reps"
	UnitMinutes Unit = "minutes"
	UnitMiles   Unit = "miles"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitReps, UnitMinutes, UnitMiles:
		return true
	}
	return false
}

// MaxNameLength bounds habit names.
const MaxNameLength = 100

// Habit is a tracked activity owned by a single identity.
type Habit struct {
	ID          ulid.ULID
	UserID      ulid.ULID
	Name        string
	Description string
	Category    Category
	Kind        Kind
	Frequency   Frequency
	TargetValue float64
	Unit        Unit
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewHabit builds a habit with generated ID and defaults filled in.
// Zero-valued enum fields default to other/habit/daily/reps.
func NewHabit(userID ulid.ULID, name string) *Habit {
	now := time.Now().UTC()
	return &Habit{
		ID:        ulid.Make(),
		UserID:    userID,
		Name:      name,
		Category:  CategoryOther,
		Kind:      KindHabit,
		Frequency: FrequencyDaily,
		Unit:      UnitReps,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the habit's fields against domain constraints.
func (h *Habit) Validate() error {
	name := strings.TrimSpace(h.Name)
	if name == "" {
		return oops.Code("HABIT_INVALID_NAME").Errorf("habit name is required")
	}
	if len(name) > MaxNameLength {
		return oops.Code("HABIT_INVALID_NAME").
			With("length", len(name)).
			Errorf("habit name must be at most %d characters", MaxNameLength)
	}
	if !h.Category.Valid() {
		return oops.Code("HABIT_INVALID_CATEGORY").
			With("category", string(h.Category)).
			Errorf("unknown category %q", h.Category)
	}
	if !h.Kind.Valid() {
		return oops.Code("HABIT_INVALID_KIND").
			With("kind", string(h.Kind)).
			Errorf("unknown kind %q", h.Kind)
	}
	if !h.Frequency.Valid() {
		return oops.Code("HABIT_INVALID_FREQUENCY").
			With("frequency", string(h.Frequency)).
			Errorf("unknown frequency %q", h.Frequency)
	}
	if !h.Unit.Valid() {
		return oops.Code("HABIT_INVALID_UNIT").
			With("unit", string(h.Unit)).
			Errorf("unknown unit %q", h.Unit)
	}
	if h.TargetValue < 0 {
		return oops.Code("HABIT_INVALID_TARGET").
			With("target", h.TargetValue).
			Errorf("target value must not be negative")
	}
	return nil
}

// HabitRepository persists habits.
type HabitRepository interface {
	// Create stores a new habit.
	Create(ctx context.Context, h *Habit) error
	// GetByID retrieves a habit by ID regardless of owner or active flag.
	// Returns ErrNotFound when no such habit exists.
	GetByID(ctx context.Context, id ulid.ULID) (*Habit, error)
	// ListActiveByUser returns the owner's active habits, newest first.
	ListActiveByUser(ctx context.Context, userID ulid.ULID) ([]*Habit, error)
	// Update persists changes to an existing habit.
	Update(ctx context.Context, h *Habit) error
	// Archive clears the active flag. The row and its completions remain.
	Archive(ctx context.Context, id ulid.ULID) error
	// Purge hard-deletes the habit row. Completions must be removed first.
	Purge(ctx context.Context, id ulid.ULID) error
}
