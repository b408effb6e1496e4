// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

// Package postgres provides PostgreSQL-backed repositories for the habit domain.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/habitloop/habitloop/internal/habit"
)

// poolIface is the subset of pgxpool.Pool the repositories use.
// pgxmock satisfies it, allowing unit tests without a database.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HabitRepository implements habit.HabitRepository using PostgreSQL.
type HabitRepository struct {
	pool poolIface
}

// NewHabitRepository creates a new HabitRepository.
func NewHabitRepository(pool poolIface) *HabitRepository {
	return &HabitRepository{pool: pool}
}

const habitColumns = `id, user_id, name, description, category, kind,
       frequency, target_value, unit, is_active, created_at, updated_at`

// Create stores a new habit.
func (r *HabitRepository) Create(ctx context.Context, h *habit.Habit) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO habits (
			id, user_id, name, description, category, kind,
			frequency, target_value, unit, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		h.ID.String(),
		h.UserID.String(),
		h.Name,
		h.Description,
		string(h.Category),
		string(h.Kind),
		string(h.Frequency),
		h.TargetValue,
		string(h.Unit),
		h.IsActive,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		return oops.Code("HABIT_CREATE_FAILED").
			With("operation", "insert habit").
			With("habit_id", h.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a habit by ID regardless of owner or active flag.
func (r *HabitRepository) GetByID(ctx context.Context, id ulid.ULID) (*habit.Habit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+habitColumns+`
		FROM habits
		WHERE id = $1
	`, id.String())

	h, err := scanHabit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("HABIT_NOT_FOUND").
			With("habit_id", id.String()).
			Wrap(habit.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("HABIT_GET_FAILED").
			With("operation", "get habit by id").
			With("habit_id", id.String()).
			Wrap(err)
	}
	return h, nil
}

// ListActiveByUser returns the owner's active habits, newest first.
func (r *HabitRepository) ListActiveByUser(ctx context.Context, userID ulid.ULID) ([]*habit.Habit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+habitColumns+`
		FROM habits
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, oops.Code("HABIT_LIST_FAILED").
			With("operation", "list active habits").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var habits []*habit.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, oops.Code("HABIT_LIST_FAILED").
				With("operation", "scan habit row").
				Wrap(err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("HABIT_LIST_FAILED").
			With("operation", "iterate habit rows").
			Wrap(err)
	}
	return habits, nil
}

// Update persists changes to an existing habit.
func (r *HabitRepository) Update(ctx context.Context, h *habit.Habit) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE habits
		SET name = $2, description = $3, category = $4, kind = $5,
		    frequency = $6, target_value = $7, unit = $8, is_active = $9,
		    updated_at = $10
		WHERE id = $1
	`,
		h.ID.String(),
		h.Name,
		h.Description,
		string(h.Category),
		string(h.Kind),
		string(h.Frequency),
		h.TargetValue,
		string(h.Unit),
		h.IsActive,
		h.UpdatedAt,
	)
	if err != nil {
		return oops.Code("HABIT_UPDATE_FAILED").
			With("operation", "update habit").
			With("habit_id", h.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("HABIT_NOT_FOUND").
			With("habit_id", h.ID.String()).
			Wrap(habit.ErrNotFound)
	}
	return nil
}

// Archive clears the active flag, leaving the row and its history intact.
func (r *HabitRepository) Archive(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE habits
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("HABIT_ARCHIVE_FAILED").
			With("operation", "archive habit").
			With("habit_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("HABIT_NOT_FOUND").
			With("habit_id", id.String()).
			Wrap(habit.ErrNotFound)
	}
	return nil
}

// Purge hard-deletes the habit row.
func (r *HabitRepository) Purge(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM habits WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("HABIT_PURGE_FAILED").
			With("operation", "delete habit").
			With("habit_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("HABIT_NOT_FOUND").
			With("habit_id", id.String()).
			Wrap(habit.ErrNotFound)
	}
	return nil
}

func scanHabit(row pgx.Row) (*habit.Habit, error) {
	var h habit.Habit
	var idStr, userIDStr string
	var category, kind, frequency, unit string

	err := row.Scan(
		&idStr,
		&userIDStr,
		&h.Name,
		&h.Description,
		&category,
		&kind,
		&frequency,
		&h.TargetValue,
		&unit,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if h.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("HABIT_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	if h.UserID, err = ulid.Parse(userIDStr); err != nil {
		return nil, oops.Code("HABIT_CORRUPT_ID").
			With("user_id", userIDStr).
			Wrap(err)
	}

	h.Category = habit.Category(category)
	h.Kind = habit.Kind(kind)
	h.Frequency = habit.Frequency(frequency)
	h.Unit = habit.Unit(unit)
	return &h, nil
}
