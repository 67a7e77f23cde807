package inventoryapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rio-inventory/inventory/internal/metrics"
	"github.com/rio-inventory/inventory/storage/model"
)

// registerAssets wires the asset handlers. Every write is recorded in the
// asset's change history under the current user.
func registerAssets(r fiber.Router, assets model.AssetsStore, logs model.AssetLogsStore) {
	g := r.Group("/assets")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			q, p, err := assetQuery(c)
			if err != nil {
				return err
			}
			if p.empty {
				total, err := assets.Count(c.UserContext(), q)
				if err != nil {
					return err
				}
				return c.JSON(
					model.AssetPage{
						Items: []model.Asset{},
						Total: total,
					},
				)
			}
			items, total, err := assets.Search(c.UserContext(), q)
			if err != nil {
				return err
			}
			if items == nil {
				items = []model.Asset{}
			}
			return c.JSON(
				model.AssetPage{
					Items: items,
					Total: total,
				},
			)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			user, err := currentUser(c)
			if err != nil {
				return err
			}
			var req model.AddAsset
			if err = parseBody(c, &req); err != nil {
				return err
			}
			created, err := assets.CreateWithLog(c.UserContext(), req, user.ID)
			if err != nil {
				return err
			}
			metrics.AssetChange(string(model.LogActionCreate))
			return c.Status(fiber.StatusCreated).JSON(created)
		},
	)

	g.Get(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return err
			}
			asset, err := assets.Get(c.UserContext(), id)
			if err != nil {
				return err
			}
			return c.JSON(asset)
		},
	)

	g.Get(
		"/:id/logs", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return err
			}
			p, err := pageParams(c)
			if err != nil {
				return err
			}
			if _, err = assets.Get(c.UserContext(), id); err != nil {
				return err
			}
			if p.empty {
				return c.JSON([]model.AssetLog{})
			}
			entries, err := logs.ForAsset(c.UserContext(), id, p.offset, p.limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []model.AssetLog{}
			}
			return c.JSON(entries)
		},
	)

	g.Put(
		"/:id", func(c *fiber.Ctx) error {
			user, err := currentUser(c)
			if err != nil {
				return err
			}
			id, err := idParam(c)
			if err != nil {
				return err
			}
			var req model.AssetUpdate
			if err = parseBody(c, &req); err != nil {
				return err
			}
			existing, err := assets.Get(c.UserContext(), id)
			if err != nil {
				return err
			}
			updated, err := assets.UpdateWithLog(c.UserContext(), existing, req, user.ID)
			if err != nil {
				return err
			}
			metrics.AssetChange(string(model.LogActionUpdate))
			return c.JSON(updated)
		},
	)

	g.Delete(
		"/:id", func(c *fiber.Ctx) error {
			id, err := idParam(c)
			if err != nil {
				return err
			}
			if _, err = assets.Delete(c.UserContext(), id); err != nil {
				return err
			}
			metrics.AssetChange(string(model.LogActionDelete))
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
