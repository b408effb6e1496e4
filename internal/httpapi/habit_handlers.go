// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/habitloop/habitloop/internal/habit"
)

// habitRequest is the caller-settable habit payload. Pointer fields
// distinguish "absent" from zero values so PUT can be a partial update.
type habitRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Kind        *string  `json:"type"`
	Frequency   *string  `json:"frequency"`
	TargetValue *float64 `json:"targetValue"`
	Unit        *string  `json:"unit"`
	IsActive    *bool    `json:"isActive"`
}

func (r habitRequest) toInput() habit.HabitInput {
	in := habit.HabitInput{
		Name:        r.Name,
		Description: r.Description,
		TargetValue: r.TargetValue,
		IsActive:    r.IsActive,
	}
	if r.Category != nil {
		v := habit.Category(*r.Category)
		in.Category = &v
	}
	if r.Kind != nil {
		v := habit.Kind(*r.Kind)
		in.Kind = &v
	}
	if r.Frequency != nil {
		v := habit.Frequency(*r.Frequency)
		in.Frequency = &v
	}
	if r.Unit != nil {
		v := habit.Unit(*r.Unit)
		in.Unit = &v
	}
	return in
}

type habitResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Kind        string    `json:"type"`
	Frequency   string    `json:"frequency"`
	TargetValue float64   `json:"targetValue"`
	Unit        string    `json:"unit"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type habitViewResponse struct {
	habitResponse
	CompletedToday bool `json:"isCompletedToday"`
	Streak         int  `json:"streak"`
	XP             int  `json:"xp"`
	Level          int  `json:"level"`
}

func toHabitResponse(h *habit.Habit) habitResponse {
	return habitResponse{
		ID:          h.ID.String(),
		Name:        h.Name,
		Description: h.Description,
		Category:    string(h.Category),
		Kind:        string(h.Kind),
		Frequency:   string(h.Frequency),
		TargetValue: h.TargetValue,
		Unit:        string(h.Unit),
		IsActive:    h.IsActive,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func toHabitViewResponse(v *habit.HabitView) habitViewResponse {
	return habitViewResponse{
		habitResponse:  toHabitResponse(v.Habit),
		CompletedToday: v.CompletedToday,
		Streak:         v.Streak,
		XP:             v.XP,
		Level:          v.Level,
	}
}

// parseID treats an unparseable ID the same as an unknown one, so probing
// with garbage IDs reveals nothing.
func parseID(raw string) (ulid.ULID, error) {
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("HABIT_NOT_FOUND").
			With("id", raw).
			Wrap(habit.ErrNotFound)
	}
	return id, nil
}

func handleListHabits(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		views, err := api.Habits.ListHabits(c.Request.Context(), identity.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]habitViewResponse, 0, len(views))
		for _, v := range views {
			out = append(out, toHabitViewResponse(v))
		}
		respondData(c, http.StatusOK, gin.H{"habits": out})
	}
}

func handleCreateHabit(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req habitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badRequest("invalid request body", err))
			return
		}

		identity := currentIdentity(c)
		h, err := api.Habits.CreateHabit(c.Request.Context(), identity.ID, req.toInput())
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, gin.H{"habit": toHabitResponse(h)})
	}
}

func handleGetHabit(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		identity := currentIdentity(c)
		view, err := api.Habits.GetHabit(c.Request.Context(), identity.ID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"habit": toHabitViewResponse(view)})
	}
}

func handleUpdateHabit(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		var req habitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badRequest("invalid request body", err))
			return
		}

		identity := currentIdentity(c)
		h, err := api.Habits.UpdateHabit(c.Request.Context(), identity.ID, id, req.toInput())
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"habit": toHabitResponse(h)})
	}
}

// DELETE archives: the habit disappears from the active list but its
// history keeps counting toward stats.
func handleArchiveHabit(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		identity := currentIdentity(c)
		h, err := api.Habits.ArchiveHabit(c.Request.Context(), identity.ID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"habit": toHabitResponse(h)})
	}
}
