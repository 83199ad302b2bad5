package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-configurator/internal/services"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

// SessionValidator checks an authorizer session cookie against roles
type SessionValidator func(cookie string, roles []string) (map[string]interface{}, error)

// AuthAdmin validates that the request has admin role authorization
func AuthAdmin() fiber.Handler {
	return AuthAdminWith(services.ValidateSession)
}

// AuthAdminWith is AuthAdmin over a specific validator
func AuthAdminWith(validate SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, validate, []string{"admin"}, "configurator.authorization.admin")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, validate SessionValidator, roles []string, errorType string) error {
	session := c.Cookies("cookie_session")
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	data, err := validate(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	if user, ok := data["user"]; ok {
		c.Locals("user", user)
	}

	return c.Next()
}
