// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
)

// errorBody is the error half of the response envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondData writes the success envelope.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError maps a service error to an HTTP status and writes the
// failure envelope. Unrecognized errors become opaque 500s; their detail
// goes to the log, never to the client.
func respondError(c *gin.Context, err error) {
	code := ""
	message := err.Error()
	if oopsErr, ok := oops.AsOops(err); ok {
		code, _ = oopsErr.Code().(string)
	}

	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"code", code,
			"error", err)
		code = "INTERNAL"
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errorBody{Code: code, Message: message},
	})
}

func statusForCode(code string) int {
	switch code {
	case "AUTH_DUPLICATE_IDENTITY",
		"AUTH_INVALID_CREDENTIALS",
		"COMPLETION_DUPLICATE",
		"REQUEST_INVALID":
		return http.StatusBadRequest
	case "HABIT_NOT_FOUND", "COMPLETION_NOT_FOUND", "USER_NOT_FOUND":
		return http.StatusNotFound
	}
	if strings.HasPrefix(code, "AUTH_INVALID_") || strings.HasPrefix(code, "HABIT_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondUnauthenticated writes the one 401 envelope every auth-gate
// failure shares. The specific cause stays in the log; a caller cannot
// tell a missing token from an expired one or a deleted account.
func respondUnauthenticated(c *gin.Context, err error) {
	code := ""
	if oopsErr, ok := oops.AsOops(err); ok {
		code, _ = oopsErr.Code().(string)
	}
	slog.WarnContext(c.Request.Context(), "request not authenticated",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"code", code,
		"error", err)

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   errorBody{Code: "UNAUTHENTICATED", Message: "authentication required"},
	})
}

// badRequest builds a REQUEST_INVALID error for malformed payloads.
func badRequest(message string, cause error) error {
	b := oops.Code("REQUEST_INVALID")
	if cause != nil {
		return b.Wrapf(cause, "%s", message)
	}
	return b.Errorf("%s", message)
}
