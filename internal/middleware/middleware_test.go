package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-configurator/internal/types"
)

func errorHandler(c *fiber.Ctx, err error) error {
	var ce *types.CustomError
	if errors.As(err, &ce) {
		return c.Status(ce.Code).JSON(fiber.Map{"type": ce.Type, "message": ce.Message})
	}
	return fiber.DefaultErrorHandler(c, err)
}

func newApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/", handler, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"apiVersion": c.Locals("apiVersion"),
			"user":       c.Locals("user"),
		})
	})
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v. Body: %s", err, string(body))
	}
	return out
}

func TestVersionMiddleware(t *testing.T) {
	app := newApp(VersionMiddleware())

	tests := []struct {
		header string
		status int
		want   string
	}{
		{"", fiber.StatusOK, APIVersion},
		{"1", fiber.StatusOK, APIVersion},
		{"1.0", fiber.StatusOK, APIVersion},
		{"1.2.0", fiber.StatusOK, "1.2.0"},
		{"2.0.0", fiber.StatusBadRequest, ""},
		{"v1", fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("X-Api-Version", tt.header)
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("Failed to execute request: %v", err)
		}
		if resp.StatusCode != tt.status {
			t.Errorf("X-Api-Version %q: expected status %d, got %d", tt.header, tt.status, resp.StatusCode)
			continue
		}

		body := decode(t, resp)
		if tt.status != fiber.StatusOK {
			if body["type"] != "configurator.version" {
				t.Errorf("X-Api-Version %q: expected version error type, got %v", tt.header, body["type"])
			}
			continue
		}
		if body["apiVersion"] != tt.want {
			t.Errorf("X-Api-Version %q: expected local %s, got %v", tt.header, tt.want, body["apiVersion"])
		}
		if got := resp.Header.Get("X-Api-Version"); got != tt.want {
			t.Errorf("X-Api-Version %q: expected response header %s, got %s", tt.header, tt.want, got)
		}
	}
}

func TestAuthAdminWith(t *testing.T) {
	var gotRoles []string
	validate := func(cookie string, roles []string) (map[string]interface{}, error) {
		gotRoles = roles
		if cookie != "good" {
			return nil, errors.New("expired")
		}
		return map[string]interface{}{"user": "admin@example.com"}, nil
	}
	app := newApp(AuthAdminWith(validate))

	// No cookie
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected 403 without a cookie, got %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["type"] != "configurator.authorization.admin" {
		t.Errorf("Expected admin authorization type, got %v", body["type"])
	}

	// Rejected session
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "cookie_session", Value: "stale"})
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("Expected 403 for a rejected session, got %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["message"] != "Invalid session: expired" {
		t.Errorf("Unexpected message %v", body["message"])
	}

	// Accepted session
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "cookie_session", Value: "good"})
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200 for a valid session, got %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["user"] != "admin@example.com" {
		t.Errorf("Expected user local, got %v", body["user"])
	}
	if len(gotRoles) != 1 || gotRoles[0] != "admin" {
		t.Errorf("Expected admin role check, got %v", gotRoles)
	}
}
