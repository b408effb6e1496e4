// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/habitloop/habitloop/internal/auth"
	authmocks "github.com/habitloop/habitloop/internal/auth/mocks"
	"github.com/habitloop/habitloop/internal/habit"
	habitmocks "github.com/habitloop/habitloop/internal/habit/mocks"
	"github.com/habitloop/habitloop/internal/httpapi"
)

type fixture struct {
	users       *authmocks.MockUserRepository
	hasher      *authmocks.MockPasswordHasher
	issuer      *auth.TokenIssuer
	habits      *habitmocks.MockHabitRepository
	completions *habitmocks.MockCompletionRepository
	router      *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := authmocks.NewMockUserRepository(t)
	hasher := authmocks.NewMockPasswordHasher(t)
	issuer, err := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	authSvc, err := auth.NewService(users, hasher, issuer)
	require.NoError(t, err)

	habits := habitmocks.NewMockHabitRepository(t)
	completions := habitmocks.NewMockCompletionRepository(t)
	habitSvc, err := habit.NewService(habits, completions)
	require.NoError(t, err)

	return &fixture{
		users:       users,
		hasher:      hasher,
		issuer:      issuer,
		habits:      habits,
		completions: completions,
		router:      httpapi.NewRouter(httpapi.API{Auth: authSvc, Habits: habitSvc}, nil),
	}
}

// authenticate issues a token for a fresh identity and primes the user
// repository to resolve it.
func (f *fixture) authenticate(t *testing.T) (*auth.Identity, string) {
	t.Helper()
	identity := &auth.Identity{
		ID:       ulid.Make(),
		Username: "alice",
		Email:    "alice@example.com",
	}
	token, err := f.issuer.Issue(identity.ID)
	require.NoError(t, err)
	f.users.On("GetByID", mock.Anything, identity.ID).Return(identity, nil)
	return identity, token
}

type envelope struct {
	Success bool                       `json:"success"`
	Data    map[string]json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env),
		"response should be the standard envelope: %s", rec.Body.String())
	return rec, env
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec, env := f.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestRegister(t *testing.T) {
	t.Run("creates the account", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.On("Hash", "password123").Return("$argon2id$hashed", nil)
		f.users.On("Create", mock.Anything, mock.AnythingOfType("*auth.Identity")).Return(nil)

		rec, env := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
		require.True(t, env.Success)
		assert.Contains(t, string(env.Data["user"]), "alice@example.com")
	})

	t.Run("duplicate account is a 400", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.On("Hash", "password123").Return("$argon2id$hashed", nil)
		f.users.On("Create", mock.Anything, mock.AnythingOfType("*auth.Identity")).
			Return(auth.ErrDuplicateIdentity)

		rec, env := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "AUTH_DUPLICATE_IDENTITY", env.Error.Code)
	})

	t.Run("invalid input is a 400", func(t *testing.T) {
		f := newFixture(t)
		rec, env := f.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"username": "a",
			"email":    "alice@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "AUTH_INVALID_USERNAME", env.Error.Code)
	})
}

func TestLogin(t *testing.T) {
	identity := func() *auth.Identity {
		return &auth.Identity{
			ID:           ulid.Make(),
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "$argon2id$stored",
		}
	}

	t.Run("returns a token on success", func(t *testing.T) {
		f := newFixture(t)
		id := identity()
		f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(id, nil)
		f.hasher.On("Verify", "password123", id.PasswordHash).Return(true, nil)
		f.hasher.On("NeedsUpgrade", id.PasswordHash).Return(false)
		f.users.On("Update", mock.Anything, mock.AnythingOfType("*auth.Identity")).Return(nil)

		rec, env := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
			"email":    "alice@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, env.Success)

		var token string
		require.NoError(t, json.Unmarshal(env.Data["token"], &token))
		verified, err := f.issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, id.ID, verified)
	})

	t.Run("wrong password is a uniform 400", func(t *testing.T) {
		f := newFixture(t)
		id := identity()
		f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(id, nil)
		f.hasher.On("Verify", "wrongpass", id.PasswordHash).Return(false, nil)
		f.users.On("Update", mock.Anything, mock.AnythingOfType("*auth.Identity")).Return(nil)

		rec, env := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
			"email":    "alice@example.com",
			"password": "wrongpass",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", env.Error.Code)
		assert.Equal(t, "invalid email or password", env.Error.Message)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("missing header is an opaque 401", func(t *testing.T) {
		f := newFixture(t)
		rec, env := f.do(t, http.MethodGet, "/api/habits", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
	})

	t.Run("garbage token is an opaque 401", func(t *testing.T) {
		f := newFixture(t)
		rec, env := f.do(t, http.MethodGet, "/api/habits", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
	})

	t.Run("token for a deleted identity is an opaque 401", func(t *testing.T) {
		f := newFixture(t)
		id := ulid.Make()
		token, err := f.issuer.Issue(id)
		require.NoError(t, err)
		f.users.On("GetByID", mock.Anything, id).Return(nil, auth.ErrNotFound)

		rec, env := f.do(t, http.MethodGet, "/api/habits", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
	})

	t.Run("every failure mode shares one envelope", func(t *testing.T) {
		f := newFixture(t)
		id := ulid.Make()
		token, err := f.issuer.Issue(id)
		require.NoError(t, err)
		f.users.On("GetByID", mock.Anything, id).Return(nil, auth.ErrNotFound)

		missing, _ := f.do(t, http.MethodGet, "/api/habits", "", nil)
		garbage, _ := f.do(t, http.MethodGet, "/api/habits", "garbage", nil)
		deleted, _ := f.do(t, http.MethodGet, "/api/habits", token, nil)

		assert.Equal(t, missing.Body.String(), garbage.Body.String())
		assert.Equal(t, missing.Body.String(), deleted.Body.String())
	})
}

func TestHabitEndpoints(t *testing.T) {
	t.Run("list joins the daily projection", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		h := habit.NewHabit(identity.ID, "Run")
		f.habits.On("ListActiveByUser", mock.Anything, identity.ID).
			Return([]*habit.Habit{h}, nil)
		f.completions.On("ListForHabit", mock.Anything, h.ID).
			Return([]*habit.Completion{
				{HabitID: h.ID, UserID: identity.ID, CompletedOn: habit.Day(time.Now())},
			}, nil)

		rec, env := f.do(t, http.MethodGet, "/api/habits", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, env.Success)

		var habits []map[string]any
		require.NoError(t, json.Unmarshal(env.Data["habits"], &habits))
		require.Len(t, habits, 1)
		assert.Equal(t, true, habits[0]["isCompletedToday"])
		assert.Equal(t, float64(1), habits[0]["streak"])
		assert.Equal(t, float64(25), habits[0]["xp"])
	})

	t.Run("create rejects an unknown category", func(t *testing.T) {
		f := newFixture(t)
		_, token := f.authenticate(t)

		rec, env := f.do(t, http.MethodPost, "/api/habits", token, gin.H{
			"name":     "Run",
			"category": "productivity",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "HABIT_INVALID_CATEGORY", env.Error.Code)
	})

	t.Run("archive returns the archived habit", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		h := habit.NewHabit(identity.ID, "Run")
		f.habits.On("GetByID", mock.Anything, h.ID).Return(h, nil)
		f.habits.On("Archive", mock.Anything, h.ID).Return(nil)

		rec, env := f.do(t, http.MethodDelete, "/api/habits/"+h.ID.String(), token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, env.Success)
		assert.Contains(t, string(env.Data["habit"]), `"isActive":false`)
	})

	t.Run("someone else's habit is a 404", func(t *testing.T) {
		f := newFixture(t)
		_, token := f.authenticate(t)

		other := habit.NewHabit(ulid.Make(), "Theirs")
		f.habits.On("GetByID", mock.Anything, other.ID).Return(other, nil)

		rec, env := f.do(t, http.MethodDelete, "/api/habits/"+other.ID.String(), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "HABIT_NOT_FOUND", env.Error.Code)
	})

	t.Run("garbage habit ID is a 404, not a 500", func(t *testing.T) {
		f := newFixture(t)
		_, token := f.authenticate(t)

		rec, env := f.do(t, http.MethodDelete, "/api/habits/not-a-ulid", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "HABIT_NOT_FOUND", env.Error.Code)
	})
}

func TestCompletionEndpoints(t *testing.T) {
	t.Run("mark records a completion", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		h := habit.NewHabit(identity.ID, "Run")
		f.habits.On("GetByID", mock.Anything, h.ID).Return(h, nil)
		f.completions.On("Create", mock.Anything, mock.MatchedBy(func(c *habit.Completion) bool {
			return c.CompletedOn.Equal(habit.Day(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))
		})).Return(nil)

		rec, env := f.do(t, http.MethodPost, "/api/completions", token, gin.H{
			"habitId":       h.ID.String(),
			"completedDate": "2026-08-20",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
		require.True(t, env.Success)
		assert.Contains(t, string(env.Data["completion"]), "2026-08-20")
	})

	t.Run("second mark for the same day is a 400", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		h := habit.NewHabit(identity.ID, "Run")
		f.habits.On("GetByID", mock.Anything, h.ID).Return(h, nil)
		f.completions.On("Create", mock.Anything, mock.AnythingOfType("*habit.Completion")).
			Return(habit.ErrAlreadyCompleted)

		rec, env := f.do(t, http.MethodPost, "/api/completions", token, gin.H{
			"habitId": h.ID.String(),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "COMPLETION_DUPLICATE", env.Error.Code)
	})

	t.Run("malformed date is a 400", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		// The date is rejected before the repository is ever consulted.
		h := habit.NewHabit(identity.ID, "Run")

		rec, env := f.do(t, http.MethodPost, "/api/completions", token, gin.H{
			"habitId":       h.ID.String(),
			"completedDate": "20/08/2026",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "REQUEST_INVALID", env.Error.Code)
	})

	t.Run("unmark returns the removed entry", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		h := habit.NewHabit(identity.ID, "Run")
		removed := habit.NewCompletion(h.ID, identity.ID, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))
		f.habits.On("GetByID", mock.Anything, h.ID).Return(h, nil)
		f.completions.On("Delete", mock.Anything, h.ID, identity.ID, removed.CompletedOn).
			Return(removed, nil)

		rec, env := f.do(t, http.MethodDelete, "/api/completions", token, gin.H{
			"habitId":       h.ID.String(),
			"completedDate": "2026-08-20",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, env.Success)
		assert.Contains(t, string(env.Data["completion"]), removed.ID.String())
	})

	t.Run("unmark of a missing entry is a 404", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		h := habit.NewHabit(identity.ID, "Run")
		f.habits.On("GetByID", mock.Anything, h.ID).Return(h, nil)
		f.completions.On("Delete", mock.Anything, h.ID, identity.ID, mock.AnythingOfType("time.Time")).
			Return(nil, habit.ErrNotFound)

		rec, env := f.do(t, http.MethodDelete, "/api/completions", token, gin.H{
			"habitId": h.ID.String(),
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "COMPLETION_NOT_FOUND", env.Error.Code)
	})

	t.Run("range filters pass through", func(t *testing.T) {
		f := newFixture(t)
		identity, token := f.authenticate(t)

		from := habit.Day(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
		to := habit.Day(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))
		f.completions.On("ListInRange", mock.Anything, identity.ID, ulid.ULID{}, from, to).
			Return(nil, nil)

		rec, env := f.do(t, http.MethodGet,
			"/api/completions?startDate=2026-08-01&endDate=2026-08-29", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
	})
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	identity, token := f.authenticate(t)

	today := habit.Day(time.Now())
	f.completions.On("ListInRange", mock.Anything, identity.ID, ulid.ULID{}, time.Time{}, time.Time{}).
		Return([]*habit.Completion{
			{UserID: identity.ID, CompletedOn: today},
			{UserID: identity.ID, CompletedOn: today.AddDate(0, 0, -1)},
		}, nil)
	f.habits.On("ListActiveByUser", mock.Anything, identity.ID).
		Return([]*habit.Habit{habit.NewHabit(identity.ID, "Run")}, nil)

	rec, env := f.do(t, http.MethodGet, "/api/stats", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(env.Data["stats"], &stats))
	assert.Equal(t, float64(2), stats["totalCompletions"])
	assert.Equal(t, float64(50), stats["totalXP"])
	assert.Equal(t, float64(1), stats["level"])
	assert.Equal(t, float64(2), stats["currentStreak"])
	assert.Equal(t, float64(1), stats["activeHabits"])
}
