// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/habitloop/habitloop/internal/auth"
	"github.com/habitloop/habitloop/internal/observability"
)

// identityKey is the gin context key the authenticated identity is stored
// under.
const identityKey = "identity"

// RequireAuth extracts the bearer token, verifies it, and stores the
// resolved identity in the request context. Any failure aborts with the
// same 401 envelope so callers cannot probe which check tripped.
func RequireAuth(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			respondUnauthenticated(c, oops.Code("AUTH_TOKEN_MISSING").Wrap(auth.ErrTokenMissing))
			return
		}

		identity, err := authSvc.VerifyToken(c.Request.Context(), token)
		if err != nil {
			respondUnauthenticated(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// currentIdentity returns the identity stored by RequireAuth.
func currentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*auth.Identity)
	return identity
}

// recordMetrics counts requests and measures latency per route.
func recordMetrics(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(
			route,
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.RequestDuration.WithLabelValues(route).
			Observe(time.Since(start).Seconds())
	}
}
