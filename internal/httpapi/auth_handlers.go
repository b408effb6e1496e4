// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/habitloop/habitloop/internal/auth"
	"github.com/habitloop/habitloop/internal/observability"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(identity *auth.Identity) userResponse {
	return userResponse{
		ID:        identity.ID.String(),
		Username:  identity.Username,
		Email:     identity.Email,
		CreatedAt: identity.CreatedAt,
	}
}

func handleRegister(api API) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badRequest("invalid request body", err))
			return
		}

		identity, err := api.Auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		respondData(c, http.StatusCreated, gin.H{"user": toUserResponse(identity)})
	}
}

func handleLogin(api API, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badRequest("invalid request body", err))
			return
		}

		identity, token, err := api.Auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if metrics != nil {
				metrics.LoginsTotal.WithLabelValues("failure").Inc()
			}
			respondError(c, err)
			return
		}
		if metrics != nil {
			metrics.LoginsTotal.WithLabelValues("success").Inc()
		}

		respondData(c, http.StatusOK, gin.H{
			"token": token,
			"user":  toUserResponse(identity),
		})
	}
}
