// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package habit

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service coordinates the habit catalog and the completion ledger.
// Every operation takes the acting identity's ID and enforces ownership;
// a habit owned by someone else is indistinguishable from a missing one.
type Service struct {
	habits      HabitRepository
	completions CompletionRepository
	now         func() time.Time
}

// NewService creates a habit service.
func NewService(habits HabitRepository, completions CompletionRepository) (*Service, error) {
	if habits == nil {
		return nil, oops.Errorf("habit repository is required")
	}
	if completions == nil {
		return nil, oops.Errorf("completion repository is required")
	}
	return &Service{
		habits:      habits,
		completions: completions,
		now:         time.Now,
	}, nil
}

// HabitInput carries the caller-settable habit fields. Nil pointers on
// update mean "leave unchanged"; on create they fall back to defaults.
type HabitInput struct {
	Name        *string
	Description *string
	Category    *Category
	Kind        *Kind
	Frequency   *Frequency
	TargetValue *float64
	Unit        *Unit
	IsActive    *bool
}

// HabitView is a habit joined with its derived per-habit projection.
type HabitView struct {
	*Habit
	CompletedToday bool
	Streak         int
	XP             int
	Level          int
}

// CreateHabit validates and stores a new habit for the identity.
func (s *Service) CreateHabit(ctx context.Context, userID ulid.ULID, in HabitInput) (*Habit, error) {
	name := ""
	if in.Name != nil {
		name = *in.Name
	}
	h := NewHabit(userID, name)
	applyInput(h, in)

	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := s.habits.Create(ctx, h); err != nil {
		return nil, oops.Code("HABIT_CREATE_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return h, nil
}

// ListHabits returns the identity's active habits, newest first, each
// joined with its derived projection for today.
func (s *Service) ListHabits(ctx context.Context, userID ulid.ULID) ([]*HabitView, error) {
	habits, err := s.habits.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("HABIT_LIST_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}

	today := Day(s.now())
	views := make([]*HabitView, 0, len(habits))
	for _, h := range habits {
		history, err := s.completions.ListForHabit(ctx, h.ID)
		if err != nil {
			return nil, oops.Code("HABIT_LIST_FAILED").
				With("habit_id", h.ID.String()).
				Wrap(err)
		}
		views = append(views, projectHabit(h, history, today))
	}
	return views, nil
}

// GetHabit returns one of the identity's habits with its projection.
func (s *Service) GetHabit(ctx context.Context, userID, habitID ulid.ULID) (*HabitView, error) {
	h, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	history, err := s.completions.ListForHabit(ctx, h.ID)
	if err != nil {
		return nil, oops.Code("HABIT_GET_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return projectHabit(h, history, Day(s.now())), nil
}

// UpdateHabit applies a partial update to one of the identity's habits.
func (s *Service) UpdateHabit(ctx context.Context, userID, habitID ulid.ULID, in HabitInput) (*Habit, error) {
	h, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	applyInput(h, in)
	h.UpdatedAt = s.now().UTC()

	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := s.habits.Update(ctx, h); err != nil {
		return nil, oops.Code("HABIT_UPDATE_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return h, nil
}

// ArchiveHabit soft-deletes one of the identity's habits and returns the
// archived record. The completion history is retained and keeps counting
// toward account stats.
func (s *Service) ArchiveHabit(ctx context.Context, userID, habitID ulid.ULID) (*Habit, error) {
	h, err := s.ownedHabit(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	if err := s.habits.Archive(ctx, habitID); err != nil {
		return nil, oops.Code("HABIT_ARCHIVE_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	h.IsActive = false
	h.UpdatedAt = s.now().UTC()
	return h, nil
}

// PurgeHabit hard-deletes a habit and its entire ledger history.
// Operator-only; the HTTP surface exposes archive, not purge.
func (s *Service) PurgeHabit(ctx context.Context, habitID ulid.ULID) error {
	if _, err := s.habits.GetByID(ctx, habitID); err != nil {
		return s.wrapLookup(err, habitID)
	}
	if err := s.completions.DeleteByHabit(ctx, habitID); err != nil {
		return oops.Code("HABIT_PURGE_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	if err := s.habits.Purge(ctx, habitID); err != nil {
		return oops.Code("HABIT_PURGE_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return nil
}

// MarkComplete records a completion for the given day. Marking the same
// day twice returns ErrAlreadyCompleted; the unique constraint in storage
// decides, so concurrent marks cannot both succeed.
func (s *Service) MarkComplete(ctx context.Context, userID, habitID ulid.ULID, day time.Time, value *float64, notes string) (*Completion, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}

	c := NewCompletion(habitID, userID, day)
	c.Value = value
	c.Notes = notes

	if err := s.completions.Create(ctx, c); err != nil {
		if errors.Is(err, ErrAlreadyCompleted) {
			return nil, oops.Code("COMPLETION_DUPLICATE").
				With("habit_id", habitID.String()).
				With("day", c.CompletedOn.Format(time.DateOnly)).
				Wrap(ErrAlreadyCompleted)
		}
		return nil, oops.Code("COMPLETION_CREATE_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return c, nil
}

// UnmarkComplete removes the completion for the given day and returns the
// removed entry.
func (s *Service) UnmarkComplete(ctx context.Context, userID, habitID ulid.ULID, day time.Time) (*Completion, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	removed, err := s.completions.Delete(ctx, habitID, userID, Day(day))
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code("COMPLETION_NOT_FOUND").
			With("habit_id", habitID.String()).
			With("day", Day(day).Format(time.DateOnly)).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("COMPLETION_DELETE_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return removed, nil
}

// CompletionsForToday returns the identity's completions for the current day.
func (s *Service) CompletionsForToday(ctx context.Context, userID ulid.ULID) ([]*Completion, error) {
	list, err := s.completions.ListForDay(ctx, userID, Day(s.now()))
	if err != nil {
		return nil, oops.Code("COMPLETION_LIST_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return list, nil
}

// CompletionsForHabit returns a habit's full history, most recent first.
func (s *Service) CompletionsForHabit(ctx context.Context, userID, habitID ulid.ULID) ([]*Completion, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	list, err := s.completions.ListForHabit(ctx, habitID)
	if err != nil {
		return nil, oops.Code("COMPLETION_LIST_FAILED").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return list, nil
}

// CompletionsInRange returns the identity's completions filtered by an
// optional habit and an optional [from, to] day range, most recent first.
func (s *Service) CompletionsInRange(ctx context.Context, userID ulid.ULID, habitID ulid.ULID, from, to time.Time) ([]*Completion, error) {
	if habitID != (ulid.ULID{}) {
		if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
			return nil, err
		}
	}
	if !from.IsZero() {
		from = Day(from)
	}
	if !to.IsZero() {
		to = Day(to)
	}
	list, err := s.completions.ListInRange(ctx, userID, habitID, from, to)
	if err != nil {
		return nil, oops.Code("COMPLETION_LIST_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return list, nil
}

// ownedHabit loads a habit and checks ownership. Both a missing habit and
// a habit owned by a different identity return ErrNotFound.
func (s *Service) ownedHabit(ctx context.Context, userID, habitID ulid.ULID) (*Habit, error) {
	h, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, s.wrapLookup(err, habitID)
	}
	if h.UserID != userID {
		return nil, oops.Code("HABIT_NOT_FOUND").
			With("habit_id", habitID.String()).
			Wrap(ErrNotFound)
	}
	return h, nil
}

func (s *Service) wrapLookup(err error, habitID ulid.ULID) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code("HABIT_NOT_FOUND").
			With("habit_id", habitID.String()).
			Wrap(ErrNotFound)
	}
	return oops.Code("HABIT_GET_FAILED").
		With("habit_id", habitID.String()).
		Wrap(err)
}

func applyInput(h *Habit, in HabitInput) {
	if in.Name != nil {
		h.Name = *in.Name
	}
	if in.Description != nil {
		h.Description = *in.Description
	}
	if in.Category != nil {
		h.Category = *in.Category
	}
	if in.Kind != nil {
		h.Kind = *in.Kind
	}
	if in.Frequency != nil {
		h.Frequency = *in.Frequency
	}
	if in.TargetValue != nil {
		h.TargetValue = *in.TargetValue
	}
	if in.Unit != nil {
		h.Unit = *in.Unit
	}
	if in.IsActive != nil {
		h.IsActive = *in.IsActive
	}
}
