package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-routing/internal/domain"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

func adminTestApp(principal *Principal) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/admin", func(c *fiber.Ctx) error {
		if principal != nil {
			c.Locals(principalKey, principal)
		}
		return c.Next()
	}, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	app := adminTestApp(&Principal{Employee: &domain.Employee{Username: "root"}, IsAdmin: true})
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	app := adminTestApp(&Principal{Employee: &domain.Employee{Username: "alice"}})
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireAdminRejectsMissingPrincipal(t *testing.T) {
	app := adminTestApp(nil)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
