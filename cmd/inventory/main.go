package main

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rio-inventory/inventory"
	"github.com/rio-inventory/inventory/auth"
	"github.com/rio-inventory/inventory/cmd/inventory/config"
	"github.com/rio-inventory/inventory/internal/logger"
	"github.com/rio-inventory/inventory/internal/metrics"
	"github.com/rio-inventory/inventory/internal/version"
	"github.com/rio-inventory/inventory/storage"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "inventory",
	Short:        "inventory serves the IT asset inventory api",
	Long:         "inventory serves the IT asset inventory api and manages its database",
	RunE:         serveRunE,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the http server",
	RunE:  serveRunE,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  migrateRunE,
}

var seedOpts storage.SeedOptions

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo data",
	RunE:  seedRunE,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.VERSION)
	},
}

func loadConfig() (*config.Config, error) {
	if err := config.Load(configFile); err != nil {
		return nil, err
	}
	c := config.Get()
	if err := logger.Init(c.Logging.Config); err != nil {
		return nil, err
	}
	log.WithField("environment", c.Environment).Info("Loaded Config")
	return c, nil
}

func serveRunE(_ *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	metrics.Init()
	store, err := config.LoadStorage(c)
	if err != nil {
		return err
	}
	authn, err := auth.NewAuthenticator(config.AuthConfig(c), store.UsersStorage(), &http.Client{})
	if err != nil {
		return err
	}
	inv, err := inventory.NewInventory(c.Server, store, authn)
	if err != nil {
		return err
	}
	log.Info("Added Endpoints")
	inv.Start()
	return nil
}

func migrateRunE(_ *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(config.StorageConfig(c))
	if err != nil {
		return err
	}
	defer store.Close()
	if err = store.Migrate(); err != nil {
		return err
	}
	log.Info("Database schema is up to date")
	return nil
}

func seedRunE(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if c.IsProduction() && seedOpts.Reset {
		return errors.New("refusing to reset the database in production")
	}
	store, err := config.LoadStorage(c)
	if err != nil {
		return err
	}
	defer store.Close()
	return storage.Seed(cmd.Context(), store, seedOpts)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "the config file to use")
	seedCmd.Flags().BoolVar(&seedOpts.Reset, "reset", false, "delete all data before seeding")
	seedCmd.Flags().IntVar(&seedOpts.Bulk, "bulk", 0, "number of additional generated assets")
	seedCmd.Flags().Uint64Var(&seedOpts.RandSeed, "seed", 0, "random seed for the generated assets")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
