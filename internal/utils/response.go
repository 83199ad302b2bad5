package utils

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// envelope is the common error body: status, message, ok, timestamp and url
func envelope(c *fiber.Ctx, status int, message string) fiber.Map {
	return fiber.Map{
		"status":    status,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	}
}

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	body := envelope(c, status, message)
	body["type"] = errorType
	return c.Status(status).JSON(body)
}

// ValidationErrorResponse sends a 400 carrying the validation details
func ValidationErrorResponse(c *fiber.Ctx, message string, details interface{}) error {
	body := envelope(c, fiber.StatusBadRequest, message)
	body["type"] = "configurator.validation.document"
	body["details"] = details
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// VersionErrorResponse sends a version conflict error (409)
func VersionErrorResponse(c *fiber.Ctx) error {
	body := envelope(c, fiber.StatusConflict, "E_VERSION - Refresh and reconcile with current version and retry.")
	body["versionError"] = true
	body["type"] = "version"
	return c.Status(fiber.StatusConflict).JSON(body)
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(envelope(c, fiber.StatusNotFound, message))
}

// MutationSuccessResponse sends a success response for mutations (POST/DELETE)
func MutationSuccessResponse(c *fiber.Ctx, newVersion uint64, affectedRows int64) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Success",
		"ok":           true,
		"newVersion":   fmt.Sprintf("%d", newVersion),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"affectedRows": affectedRows,
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status       int         `json:"status"`
	Message      string      `json:"message"`
	Ok           bool        `json:"ok"`
	Timestamp    string      `json:"timestamp"`
	URL          string      `json:"url"`
	Type         string      `json:"type,omitempty"`
	VersionError bool        `json:"versionError,omitempty"`
	Details      interface{} `json:"details,omitempty"`
}

// SuccessResponseStruct defines the schema for mutation success responses
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	NewVersion   string `json:"newVersion"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}
