package inventoryapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rio-inventory/inventory/storage/model"
)

// registerUsers wires the user handlers. `/users/me` is registered ahead of
// the id routes.
func registerUsers(r fiber.Router, users model.UsersStore) {
	r.Get(
		"/users/me", func(c *fiber.Ctx) error {
			u, err := currentUser(c)
			if err != nil {
				return err
			}
			return c.JSON(u)
		},
	)
	registerReference[model.User, model.AddUser, model.UserUpdate](r, "/users", users)
}
