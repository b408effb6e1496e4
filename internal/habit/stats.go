// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package habit

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Gamification constants. XP and levels are recomputed from the ledger on
// every read; no counter in storage can drift from the history.
const (
	// XPPerCompletion is the XP earned by each ledger entry.
	XPPerCompletion = 25
	// XPPerHabitLevel is the XP needed to advance a habit one level.
	XPPerHabitLevel = 100
	// XPPerAccountLevel is the XP needed to advance the account one level.
	XPPerAccountLevel = 200
)

// HabitLevel converts a habit's XP total to its level, starting at 1.
func HabitLevel(xp int) int {
	return xp/XPPerHabitLevel + 1
}

// AccountLevel converts an account's XP total to its level, starting at 1.
func AccountLevel(xp int) int {
	return xp/XPPerAccountLevel + 1
}

// ComputeStreak counts consecutive completed days walking backward from
// today. A streak is still alive if the most recent completion was
// yesterday; a gap of more than one day breaks it. days may be in any
// order and may contain duplicates; all values must be Day-normalized.
func ComputeStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	seen := make(map[time.Time]bool, len(days))
	for _, d := range days {
		seen[d] = true
	}

	today = Day(today)
	cursor := today
	if !seen[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
		if !seen[cursor] {
			return 0
		}
	}

	streak := 0
	for seen[cursor] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// AccountStats is the derived account-wide projection.
type AccountStats struct {
	TotalCompletions int
	TotalXP          int
	Level            int
	CurrentStreak    int
	ActiveHabits     int
}

// Stats computes the identity's account-wide projection. The account
// streak counts days with at least one completion on any habit, archived
// habits included.
func (s *Service) Stats(ctx context.Context, userID ulid.ULID) (*AccountStats, error) {
	history, err := s.completions.ListInRange(ctx, userID, ulid.ULID{}, time.Time{}, time.Time{})
	if err != nil {
		return nil, oops.Code("STATS_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	active, err := s.habits.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("STATS_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}

	days := make([]time.Time, len(history))
	for i, c := range history {
		days[i] = c.CompletedOn
	}

	totalXP := len(history) * XPPerCompletion
	return &AccountStats{
		TotalCompletions: len(history),
		TotalXP:          totalXP,
		Level:            AccountLevel(totalXP),
		CurrentStreak:    ComputeStreak(days, s.now()),
		ActiveHabits:     len(active),
	}, nil
}

// projectHabit joins a habit with the projection derived from its history.
func projectHabit(h *Habit, history []*Completion, today time.Time) *HabitView {
	days := make([]time.Time, len(history))
	completedToday := false
	for i, c := range history {
		days[i] = c.CompletedOn
		if c.CompletedOn.Equal(today) {
			completedToday = true
		}
	}

	xp := len(history) * XPPerCompletion
	return &HabitView{
		Habit:          h,
		CompletedToday: completedToday,
		Streak:         ComputeStreak(days, today),
		XP:             xp,
		Level:          HabitLevel(xp),
	}
}
