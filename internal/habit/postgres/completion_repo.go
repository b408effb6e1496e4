// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/habitloop/habitloop/internal/habit"
)

// CompletionRepository implements habit.CompletionRepository using PostgreSQL.
// The unique index on (habit_id, user_id, completed_on) is the source of
// truth for idempotency; Create never pre-checks for an existing entry.
type CompletionRepository struct {
	pool poolIface
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(pool poolIface) *CompletionRepository {
	return &CompletionRepository{pool: pool}
}

const completionColumns = `id, habit_id, user_id, completed_on, value, notes, created_at`

// Create inserts a ledger entry. A unique violation maps to
// habit.ErrAlreadyCompleted.
func (r *CompletionRepository) Create(ctx context.Context, c *habit.Completion) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO completions (
			id, habit_id, user_id, completed_on, value, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		c.ID.String(),
		c.HabitID.String(),
		c.UserID.String(),
		c.CompletedOn,
		c.Value,
		c.Notes,
		c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("COMPLETION_DUPLICATE").
				With("habit_id", c.HabitID.String()).
				With("day", c.CompletedOn.Format(time.DateOnly)).
				Wrap(habit.ErrAlreadyCompleted)
		}
		return oops.Code("COMPLETION_CREATE_FAILED").
			With("operation", "insert completion").
			With("habit_id", c.HabitID.String()).
			Wrap(err)
	}
	return nil
}

// Delete removes the entry for the given day and returns the removed row.
func (r *CompletionRepository) Delete(ctx context.Context, habitID, userID ulid.ULID, day time.Time) (*habit.Completion, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM completions
		WHERE habit_id = $1 AND user_id = $2 AND completed_on = $3
		RETURNING `+completionColumns+`
	`, habitID.String(), userID.String(), day)

	c, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code("COMPLETION_NOT_FOUND").
				With("habit_id", habitID.String()).
				With("day", day.Format(time.DateOnly)).
				Wrap(habit.ErrNotFound)
		}
		return nil, oops.Code("COMPLETION_DELETE_FAILED").
			With("operation", "delete completion").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return c, nil
}

// ListForDay returns the identity's completions on the given day.
func (r *CompletionRepository) ListForDay(ctx context.Context, userID ulid.ULID, day time.Time) ([]*habit.Completion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+completionColumns+`
		FROM completions
		WHERE user_id = $1 AND completed_on = $2
		ORDER BY created_at
	`, userID.String(), day)
	if err != nil {
		return nil, oops.Code("COMPLETION_LIST_FAILED").
			With("operation", "list completions for day").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return collectCompletions(rows)
}

// ListForHabit returns a habit's full history, most recent day first.
func (r *CompletionRepository) ListForHabit(ctx context.Context, habitID ulid.ULID) ([]*habit.Completion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+completionColumns+`
		FROM completions
		WHERE habit_id = $1
		ORDER BY completed_on DESC
	`, habitID.String())
	if err != nil {
		return nil, oops.Code("COMPLETION_LIST_FAILED").
			With("operation", "list completions for habit").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return collectCompletions(rows)
}

// ListInRange returns the identity's completions with optional habit and
// date filters, most recent day first. Zero values disable a filter.
func (r *CompletionRepository) ListInRange(ctx context.Context, userID ulid.ULID, habitID ulid.ULID, from, to time.Time) ([]*habit.Completion, error) {
	sql := `
		SELECT ` + completionColumns + `
		FROM completions
		WHERE user_id = $1`
	args := []any{userID.String()}

	if habitID != (ulid.ULID{}) {
		args = append(args, habitID.String())
		sql += ` AND habit_id = $2`
	}
	if !from.IsZero() {
		args = append(args, from)
		sql += ` AND completed_on >= $` + strconv.Itoa(len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		sql += ` AND completed_on <= $` + strconv.Itoa(len(args))
	}
	sql += `
		ORDER BY completed_on DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, oops.Code("COMPLETION_LIST_FAILED").
			With("operation", "list completions in range").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return collectCompletions(rows)
}

// DeleteByHabit removes every entry for the habit.
func (r *CompletionRepository) DeleteByHabit(ctx context.Context, habitID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM completions WHERE habit_id = $1
	`, habitID.String())
	if err != nil {
		return oops.Code("COMPLETION_DELETE_FAILED").
			With("operation", "delete completions by habit").
			With("habit_id", habitID.String()).
			Wrap(err)
	}
	return nil
}

func collectCompletions(rows pgx.Rows) ([]*habit.Completion, error) {
	defer rows.Close()

	var completions []*habit.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, oops.Code("COMPLETION_LIST_FAILED").
				With("operation", "scan completion row").
				Wrap(err)
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("COMPLETION_LIST_FAILED").
			With("operation", "iterate completion rows").
			Wrap(err)
	}
	return completions, nil
}

func scanCompletion(row pgx.Row) (*habit.Completion, error) {
	var c habit.Completion
	var idStr, habitIDStr, userIDStr string

	err := row.Scan(
		&idStr,
		&habitIDStr,
		&userIDStr,
		&c.CompletedOn,
		&c.Value,
		&c.Notes,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("COMPLETION_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	if c.HabitID, err = ulid.Parse(habitIDStr); err != nil {
		return nil, oops.Code("COMPLETION_CORRUPT_ID").
			With("habit_id", habitIDStr).
			Wrap(err)
	}
	if c.UserID, err = ulid.Parse(userIDStr); err != nil {
		return nil, oops.Code("COMPLETION_CORRUPT_ID").
			With("user_id", userIDStr).
			Wrap(err)
	}

	// DATE columns come back at UTC midnight already; normalize anyway so
	// downstream comparisons never see a session-timezone offset.
	c.CompletedOn = habit.Day(c.CompletedOn)
	return &c, nil
}
