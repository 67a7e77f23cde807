package inventoryapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rio-inventory/inventory/storage/model"
)

// registerReference wires list, create, get, update and delete handlers for
// a reference entity. Deletes are refused while assets still reference the
// entity.
func registerReference[T any, C model.Creatable[T], U model.Patch](
	r fiber.Router, path string, store model.ReferenceStore[T, C, U],
) {
	g := r.Group(path)

	g.Get(
		"/", func(c *fiber.Ctx) error {
			p, err := pageParams(c)
			if err != nil {
				return err
			}
			if p.empty {
				return c.JSON([]T{})
			}
			items, err := store.List(c.UserContext(), p.offset, p.limit)
			if err != nil {
				return err
			}
			if items == nil {
				items = []T{}
			}
			return c.JSON(items)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req C
			if err := parseBody(c, &req); err != nil {
				return err
			}
			created, err := store.Create(c.UserContext(), req)
			if err != nil {
				return err
			}
			return c.Status(fiber.StatusCreated).JSON(created)
		},
	)

	g.Get(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return err
			}
			item, err := store.Get(c.UserContext(), id)
			if err != nil {
				return err
			}
			return c.JSON(item)
		},
	)

	g.Put(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return err
			}
			var req U
			if err = parseBody(c, &req); err != nil {
				return err
			}
			existing, err := store.Get(c.UserContext(), id)
			if err != nil {
				return err
			}
			updated, err := store.Update(c.UserContext(), existing, req)
			if err != nil {
				return err
			}
			return c.JSON(updated)
		},
	)

	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return err
			}
			if _, err = store.Delete(c.UserContext(), id); err != nil {
				return err
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
