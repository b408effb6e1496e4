// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/habitloop/habitloop/internal/auth"
	authpg "github.com/habitloop/habitloop/internal/auth/postgres"
	"github.com/habitloop/habitloop/internal/habit"
	habitpg "github.com/habitloop/habitloop/internal/habit/postgres"
	"github.com/habitloop/habitloop/internal/httpapi"
	"github.com/habitloop/habitloop/internal/store"
)

// testEnv holds everything a spec needs to talk to a running server.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	server    *httpapi.Server
	baseURL   string
}

var env *testEnv

func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	e := &testEnv{ctx: ctx, cancel: cancel}

	container, err := pgcontainer.Run(ctx, "postgres:16-alpine",
		pgcontainer.WithDatabase("habitloop"),
		pgcontainer.WithUsername("habitloop"),
		pgcontainer.WithPassword("habitloop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	e.container = container

	databaseURL, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		e.teardown()
		return nil, fmt.Errorf("connection string: %w", err)
	}

	pool, err := store.Open(ctx, databaseURL)
	if err != nil {
		e.teardown()
		return nil, fmt.Errorf("open pool: %w", err)
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		e.teardown()
		return nil, fmt.Errorf("new migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		e.teardown()
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	if err := migrator.Close(); err != nil {
		e.teardown()
		return nil, fmt.Errorf("close migrator: %w", err)
	}

	issuer, err := auth.NewTokenIssuer([]byte("integration-test-secret"), time.Hour)
	if err != nil {
		e.teardown()
		return nil, err
	}
	authSvc, err := auth.NewService(authpg.NewUserRepository(pool), auth.NewArgon2idHasher(), issuer)
	if err != nil {
		e.teardown()
		return nil, err
	}
	habitSvc, err := habit.NewService(habitpg.NewHabitRepository(pool), habitpg.NewCompletionRepository(pool))
	if err != nil {
		e.teardown()
		return nil, err
	}

	router := httpapi.NewRouter(httpapi.API{Auth: authSvc, Habits: habitSvc}, nil)
	e.server = httpapi.NewServer("127.0.0.1:0", router)
	if _, err := e.server.Start(); err != nil {
		e.teardown()
		return nil, fmt.Errorf("start server: %w", err)
	}
	e.baseURL = "http://" + e.server.Addr()

	return e, nil
}

func (e *testEnv) teardown() {
	if e.server != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = e.server.Stop(stopCtx)
		stopCancel()
	}
	if e.container != nil {
		_ = e.container.Terminate(context.Background())
	}
	e.cancel()
}

// apiResponse is the standard envelope every endpoint returns.
type apiResponse struct {
	Success bool                       `json:"success"`
	Data    map[string]json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(method, path, token string, body any) (int, apiResponse) {
	GinkgoHelper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
	}

	req, err := http.NewRequest(method, env.baseURL+path, bytes.NewReader(payload))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	var out apiResponse
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return resp.StatusCode, out
}

var _ = BeforeSuite(func() {
	var err error
	env, err = setupTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.teardown()
	}
})

var _ = Describe("HabitLoop API", Ordered, func() {
	var (
		token   string
		habitID string
	)

	It("registers a new user", func() {
		status, resp := doRequest(http.MethodPost, "/api/auth/register", "", map[string]any{
			"username": "runner",
			"email":    "runner@example.com",
			"password": "long-enough-password",
		})
		Expect(status).To(Equal(http.StatusCreated))
		Expect(resp.Success).To(BeTrue())
	})

	It("rejects a duplicate email regardless of case", func() {
		status, resp := doRequest(http.MethodPost, "/api/auth/register", "", map[string]any{
			"username": "runner2",
			"email":    "RUNNER@example.com",
			"password": "long-enough-password",
		})
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(resp.Error).NotTo(BeNil())
		Expect(resp.Error.Code).To(Equal("AUTH_DUPLICATE_IDENTITY"))
	})

	It("logs in and receives a token", func() {
		status, resp := doRequest(http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "runner@example.com",
			"password": "long-enough-password",
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(resp.Success).To(BeTrue())
		Expect(json.Unmarshal(resp.Data["token"], &token)).To(Succeed())
		Expect(token).NotTo(BeEmpty())
	})

	It("refuses unauthenticated habit access", func() {
		status, resp := doRequest(http.MethodGet, "/api/habits", "", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(resp.Error).NotTo(BeNil())
		Expect(resp.Error.Code).To(Equal("UNAUTHENTICATED"))
	})

	It("rejects a wrong password with a 400 and no token", func() {
		status, resp := doRequest(http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "runner@example.com",
			"password": "not-the-password",
		})
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(resp.Error).NotTo(BeNil())
		Expect(resp.Error.Code).To(Equal("AUTH_INVALID_CREDENTIALS"))
	})

	It("creates a habit", func() {
		status, resp := doRequest(http.MethodPost, "/api/habits", token, map[string]any{
			"name":        "Morning run",
			"category":    "fitness",
			"type":        "workout",
			"targetValue": 2,
			"unit":        "miles",
		})
		Expect(status).To(Equal(http.StatusCreated))

		var created map[string]any
		Expect(json.Unmarshal(resp.Data["habit"], &created)).To(Succeed())
		habitID = created["id"].(string)
		Expect(habitID).NotTo(BeEmpty())
	})

	It("lists the habit as not completed today", func() {
		status, resp := doRequest(http.MethodGet, "/api/habits", token, nil)
		Expect(status).To(Equal(http.StatusOK))

		var habits []map[string]any
		Expect(json.Unmarshal(resp.Data["habits"], &habits)).To(Succeed())
		Expect(habits).To(HaveLen(1))
		Expect(habits[0]["isCompletedToday"]).To(BeFalse())
		Expect(habits[0]["streak"]).To(BeEquivalentTo(0))
	})

	It("marks the habit complete for today", func() {
		status, resp := doRequest(http.MethodPost, "/api/completions", token, map[string]any{
			"habitId": habitID,
		})
		Expect(status).To(Equal(http.StatusCreated))
		Expect(resp.Success).To(BeTrue())
	})

	It("rejects a second completion for the same day", func() {
		status, resp := doRequest(http.MethodPost, "/api/completions", token, map[string]any{
			"habitId": habitID,
		})
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(resp.Error).NotTo(BeNil())
		Expect(resp.Error.Code).To(Equal("COMPLETION_DUPLICATE"))
	})

	It("reflects the completion in the habit projection", func() {
		status, resp := doRequest(http.MethodGet, "/api/habits/"+habitID, token, nil)
		Expect(status).To(Equal(http.StatusOK))

		var view map[string]any
		Expect(json.Unmarshal(resp.Data["habit"], &view)).To(Succeed())
		Expect(view["isCompletedToday"]).To(BeTrue())
		Expect(view["streak"]).To(BeEquivalentTo(1))
		Expect(view["xp"]).To(BeEquivalentTo(25))
	})

	It("derives account stats from the ledger", func() {
		status, resp := doRequest(http.MethodGet, "/api/stats", token, nil)
		Expect(status).To(Equal(http.StatusOK))

		var stats map[string]any
		Expect(json.Unmarshal(resp.Data["stats"], &stats)).To(Succeed())
		Expect(stats["totalCompletions"]).To(BeEquivalentTo(1))
		Expect(stats["totalXP"]).To(BeEquivalentTo(25))
		Expect(stats["currentStreak"]).To(BeEquivalentTo(1))
		Expect(stats["activeHabits"]).To(BeEquivalentTo(1))
	})

	It("unmarks today's completion", func() {
		status, resp := doRequest(http.MethodDelete, "/api/completions", token, map[string]any{
			"habitId": habitID,
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(resp.Success).To(BeTrue())
	})

	It("archives the habit and hides it from the active list", func() {
		status, resp := doRequest(http.MethodDelete, "/api/habits/"+habitID, token, nil)
		Expect(status).To(Equal(http.StatusOK))

		var archived map[string]any
		Expect(json.Unmarshal(resp.Data["habit"], &archived)).To(Succeed())
		Expect(archived["isActive"]).To(BeFalse())

		status, resp = doRequest(http.MethodGet, "/api/habits", token, nil)
		Expect(status).To(Equal(http.StatusOK))

		var habits []map[string]any
		Expect(json.Unmarshal(resp.Data["habits"], &habits)).To(Succeed())
		Expect(habits).To(BeEmpty())
	})

	It("treats another user's habit as not found", func() {
		status, resp := doRequest(http.MethodPost, "/api/auth/register", "", map[string]any{
			"username": "stranger",
			"email":    "stranger@example.com",
			"password": "long-enough-password",
		})
		Expect(status).To(Equal(http.StatusCreated))
		Expect(resp.Success).To(BeTrue())

		var strangerToken string
		status, resp = doRequest(http.MethodPost, "/api/auth/login", "", map[string]any{
			"email":    "stranger@example.com",
			"password": "long-enough-password",
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(json.Unmarshal(resp.Data["token"], &strangerToken)).To(Succeed())

		status, resp = doRequest(http.MethodGet, "/api/habits/"+habitID, strangerToken, nil)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(resp.Error).NotTo(BeNil())
		Expect(resp.Error.Code).To(Equal("HABIT_NOT_FOUND"))
	})
})
