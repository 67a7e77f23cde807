package inventoryapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rio-inventory/inventory/storage/model"
)

func idParam(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, model.ValidationErrorFmt("invalid id '%s'", raw)
	}
	return uint(id), nil
}

// intQuery returns the integer query parameter of the first present key and
// whether any of the keys was present
func intQuery(c *fiber.Ctx, keys ...string) (int, bool, error) {
	for _, k := range keys {
		raw := c.Query(k)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, true, model.ValidationErrorFmt("%s must be an integer", k)
		}
		if v < 0 {
			return 0, true, model.ValidationErrorFmt("%s must not be negative", k)
		}
		return v, true, nil
	}
	return 0, false, nil
}

// page holds the paging query parameters
type page struct {
	offset int
	limit  int
	// empty is set for an explicit `limit=0`; an absent limit means the
	// default page size
	empty  bool
}

// pageParams reads the offset (`skip` or `offset`) and `limit` query
// parameters
func pageParams(c *fiber.Ctx) (p page, err error) {
	if p.offset, _, err = intQuery(c, "skip", "offset"); err != nil {
		return
	}
	var present bool
	if p.limit, present, err = intQuery(c, "limit"); err != nil {
		return
	}
	p.empty = present && p.limit == 0
	return
}

func assetQuery(c *fiber.Ctx) (model.AssetQuery, page, error) {
	p, err := pageParams(c)
	if err != nil {
		return model.AssetQuery{}, p, err
	}
	return model.AssetQuery{
		Offset:  p.offset,
		Limit:   p.limit,
		Search:  c.Query("search"),
		SortBy:  c.Query("order_by"),
		SortDir: model.SortDirection(c.Query("order_dir")),
	}, p, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return model.ValidationErrorFmt("invalid request body: %v", err)
	}
	return nil
}
