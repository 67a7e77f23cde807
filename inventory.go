package inventory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rio-inventory/inventory/api/inventoryapi"
	"github.com/rio-inventory/inventory/auth"
	internallogger "github.com/rio-inventory/inventory/internal/logger"
	"github.com/rio-inventory/inventory/internal/metrics"
	"github.com/rio-inventory/inventory/internal/version"
	"github.com/rio-inventory/inventory/storage"
)

// APIPrefix is the path all inventory api routes are mounted under
const APIPrefix = "/api/v1"

// DefaultCORSOrigins are the origins of the development frontends
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:8080",
}

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   inventoryapi.ErrorHandler,
	Network:        "tcp",
}

// Inventory is the inventory service: the http server together with the
// storage and authentication it serves
type Inventory struct {
	server        *fiber.App
	serverConf    ServerConf
	storage       *storage.Storage
	authenticator *auth.Authenticator
}

// NewInventory creates a new Inventory and registers all routes
func NewInventory(serverConf ServerConf, store *storage.Storage, authn *auth.Authenticator) (*Inventory, error) {
	if store == nil {
		return nil, errors.New("no storage given")
	}
	fiberConf := FiberServerConfig
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		fiberConf.TrustedProxies = tps
		fiberConf.EnableTrustedProxyCheck = true
	}
	fiberConf.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(fiberConf)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(logger.New(logger.Config{Output: internallogger.AccessWriter()}))
	server.Use(requestid.New())
	server.Use(corsMiddleware(serverConf.CORSOrigins))
	server.Use(metrics.Middleware)

	inv := &Inventory{
		server:        server,
		serverConf:    serverConf,
		storage:       store,
		authenticator: authn,
	}

	server.Get(
		"/", func(c *fiber.Ctx) error {
			return c.JSON(
				fiber.Map{
					"message": "Welcome to the inventory API!",
					"version": version.VERSION,
				},
			)
		},
	)
	server.Get("/healthz", inv.health)
	server.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	var serverURL string
	if serverConf.ExternalURL != "" {
		serverURL = strings.TrimRight(serverConf.ExternalURL, "/") + APIPrefix
	}
	if err := inventoryapi.Register(
		server.Group(APIPrefix), store.Backends(), authn, &inventoryapi.Options{ServerURL: serverURL},
	); err != nil {
		return nil, err
	}
	return inv, nil
}

func corsMiddleware(origins []string) fiber.Handler {
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}
	allowed := strings.Join(origins, ",")
	return cors.New(
		cors.Config{
			AllowOrigins:     allowed,
			AllowCredentials: allowed != "*",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		},
	)
}

func (inv *Inventory) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := inv.storage.Ping(ctx); err != nil {
		log.WithError(err).Warn("health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (inv *Inventory) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(inv.server)
}

// App returns the underlying fiber.App
func (inv *Inventory) App() *fiber.App {
	return inv.server
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (inv *Inventory) Listen(addr string) error {
	return inv.server.Listen(addr)
}

// Shutdown gracefully stops the server
func (inv *Inventory) Shutdown(ctx context.Context) error {
	return inv.server.ShutdownWithContext(ctx)
}

// Start loads the signing keys and serves until the server fails
func (inv *Inventory) Start() {
	if inv.authenticator != nil {
		if err := inv.authenticator.Warmup(context.Background()); err != nil {
			log.WithError(err).Warn("could not load signing keys on startup; retrying on demand")
		}
	}
	conf := inv.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(inv.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Fatal()
		}()
	}
	port := conf.Port
	if port == 0 {
		port = 443
	}
	log.WithField("port", port).Info("TLS enabled, starting https server")
	log.WithError(inv.server.ListenTLS(fmt.Sprintf("%s:%d", conf.IPListen, port), conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
