package inventoryapi

import (
	"embed"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rio-inventory/inventory/auth"
	"github.com/rio-inventory/inventory/storage/model"
)

//go:embed openapi.yaml
var docs embed.FS

// Options controls optional features of the API registration
type Options struct {
	// ServerURL is advertised in the served OpenAPI document
	ServerURL string
}

// Register mounts all inventory API routes under the provided group. All
// routes except the OpenAPI document require authentication.
func Register(r fiber.Router, backs model.Backends, authn *auth.Authenticator, opts *Options) error {
	if authn == nil {
		return errors.New("inventoryapi: no authenticator given")
	}
	openapiRaw, err := docs.ReadFile("openapi.yaml")
	if err != nil {
		return errors.Wrap(err, "inventoryapi: failed to read openapi.yaml")
	}
	if opts != nil {
		openapiRaw = updateOpenAPIServers(openapiRaw, opts.ServerURL)
	}
	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiRaw)
		},
	)

	r.Use(authMiddleware(authn))

	registerAssets(r, backs.Assets, backs.AssetLogs)
	registerReference(r, "/asset-types", backs.AssetTypes)
	registerReference(r, "/manufacturers", backs.Manufacturers)
	registerReference(r, "/statuses", backs.Statuses)
	registerReference(r, "/locations", backs.Locations)
	registerReference(r, "/suppliers", backs.Suppliers)
	registerUsers(r, backs.Users)
	return nil
}

func updateOpenAPIServers(doc []byte, serverURL string) []byte {
	if len(serverURL) == 0 {
		return doc
	}
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	full["servers"] = []map[string]any{
		{
			"url":         serverURL,
			"description": "This instance",
		},
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}
