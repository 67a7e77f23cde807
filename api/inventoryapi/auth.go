package inventoryapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/rio-inventory/inventory/auth"
	"github.com/rio-inventory/inventory/storage/model"
)

const localsUser = "inventory_user"

// authMiddleware resolves the bearer token of every request to a local user.
// When authentication is disabled the token is ignored.
func authMiddleware(a *auth.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok && !a.Disabled() {
			return errors.Wrap(auth.ErrUnauthenticated, "missing bearer token")
		}
		user, err := a.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(localsUser, user)
		return c.Next()
	}
}

// bearerToken extracts the token from the Authorization header
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// currentUser returns the user resolved by authMiddleware
func currentUser(c *fiber.Ctx) (*model.User, error) {
	u, ok := c.Locals(localsUser).(*model.User)
	if !ok || u == nil {
		return nil, errors.Wrap(auth.ErrUnauthenticated, "no user in request")
	}
	return u, nil
}
