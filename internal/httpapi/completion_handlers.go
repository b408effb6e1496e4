// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/habitloop/habitloop/internal/habit"
	"github.com/habitloop/habitloop/internal/observability"
)

type completionRequest struct {
	HabitID       string   `json:"habitId"`
	CompletedDate string   `json:"completedDate"`
	Value         *float64 `json:"value"`
	Notes         string   `json:"notes"`
}

type completionResponse struct {
	ID          string    `json:"id"`
	HabitID     string    `json:"habitId"`
	CompletedOn string    `json:"completedDate"`
	Value       *float64  `json:"value,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toCompletionResponse(c *habit.Completion) completionResponse {
	return completionResponse{
		ID:          c.ID.String(),
		HabitID:     c.HabitID.String(),
		CompletedOn: c.CompletedOn.Format(time.DateOnly),
		Value:       c.Value,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
	}
}

func completionList(list []*habit.Completion) []completionResponse {
	out := make([]completionResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCompletionResponse(c))
	}
	return out
}

// parseDate accepts a YYYY-MM-DD string; empty means today.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, badRequest("date must be YYYY-MM-DD", err)
	}
	return day, nil
}

func handleMarkComplete(api API, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req completionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badRequest("invalid request body", err))
			return
		}

		habitID, err := parseID(req.HabitID)
		if err != nil {
			respondError(c, err)
			return
		}
		day, err := parseDate(req.CompletedDate)
		if err != nil {
			respondError(c, err)
			return
		}

		identity := currentIdentity(c)
		completion, err := api.Habits.MarkComplete(
			c.Request.Context(), identity.ID, habitID, day, req.Value, req.Notes)
		if err != nil {
			if errors.Is(err, habit.ErrAlreadyCompleted) {
				observability.RecordCompletionConflict()
			}
			respondError(c, err)
			return
		}
		if metrics != nil {
			metrics.CompletionsTotal.WithLabelValues("mark").Inc()
		}

		respondData(c, http.StatusCreated, gin.H{"completion": toCompletionResponse(completion)})
	}
}

func handleUnmarkComplete(api API, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req completionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badRequest("invalid request body", err))
			return
		}

		habitID, err := parseID(req.HabitID)
		if err != nil {
			respondError(c, err)
			return
		}
		day, err := parseDate(req.CompletedDate)
		if err != nil {
			respondError(c, err)
			return
		}

		identity := currentIdentity(c)
		removed, err := api.Habits.UnmarkComplete(c.Request.Context(), identity.ID, habitID, day)
		if err != nil {
			respondError(c, err)
			return
		}
		if metrics != nil {
			metrics.CompletionsTotal.WithLabelValues("unmark").Inc()
		}

		respondData(c, http.StatusOK, gin.H{"completion": toCompletionResponse(removed)})
	}
}

func handleCompletionsToday(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		list, err := api.Habits.CompletionsForToday(c.Request.Context(), identity.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"completions": completionList(list)})
	}
}

func handleCompletionsForHabit(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		habitID, err := parseID(c.Param("habitId"))
		if err != nil {
			respondError(c, err)
			return
		}

		identity := currentIdentity(c)
		list, err := api.Habits.CompletionsForHabit(c.Request.Context(), identity.ID, habitID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"completions": completionList(list)})
	}
}

// handleListCompletions filters by optional habitId, startDate and endDate
// query parameters.
func handleListCompletions(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		var habitID ulid.ULID
		if raw := c.Query("habitId"); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			habitID = id
		}

		var from, to time.Time
		if raw := c.Query("startDate"); raw != "" {
			day, err := parseDate(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			from = day
		}
		if raw := c.Query("endDate"); raw != "" {
			day, err := parseDate(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			to = day
		}

		identity := currentIdentity(c)
		list, err := api.Habits.CompletionsInRange(c.Request.Context(), identity.ID, habitID, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"completions": completionList(list)})
	}
}

func handleStats(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := currentIdentity(c)
		stats, err := api.Habits.Stats(c.Request.Context(), identity.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{
			"stats": gin.H{
				"totalCompletions": stats.TotalCompletions,
				"totalXP":          stats.TotalXP,
				"level":            stats.Level,
				"currentStreak":    stats.CurrentStreak,
				"activeHabits":     stats.ActiveHabits,
			},
		})
	}
}
