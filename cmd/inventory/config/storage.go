package config

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/rio-inventory/inventory/storage"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`

	storage.DSNConf `yaml:",inline"`

	Debug        bool                    `yaml:"debug"`
	QueryTimeout duration.DurationOption `yaml:"query_timeout"`
}

func (c *storageConf) validate() error {
	switch c.Driver {
	case storage.DriverSQLite:
		if c.DSN != "" {
			return nil
		}
		if c.DataDir == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		if !fileutils.FileExists(c.DataDir) {
			return errors.Errorf("error in storage conf: data_dir '%s' does not exist", c.DataDir)
		}
		return nil
	case storage.DriverMySQL, storage.DriverPostgres:
		var err error
		if c.DSN == "" {
			c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
		}
		return err
	default:
		return errors.Errorf(
			"error in storage conf: unsupported driver '%s', must be one of %v", c.Driver, storage.SupportedDrivers,
		)
	}
}

var defaultStorageConf = storageConf{
	Driver:  storage.DriverSQLite,
	DataDir: ".",
	DSNConf: storage.DSNConf{
		User: "inventory",
		Host: "localhost",
		DB:   "inventory",
	},
	QueryTimeout: duration.DurationOption(5 * time.Second),
}

// StorageConfig returns the storage.Config for the passed Config
func StorageConfig(c *Config) storage.Config {
	return storage.Config{
		Driver:       c.Storage.Driver,
		DSN:          c.Storage.DSN,
		DataDir:      c.Storage.DataDir,
		Debug:        c.Storage.Debug,
		QueryTimeout: c.Storage.QueryTimeout.Duration(),
		MaxLimit:     c.API.MaxLimit,
	}
}

// LoadStorage opens the storage for the passed Config and migrates the schema
func LoadStorage(c *Config) (*storage.Storage, error) {
	s, err := storage.NewStorage(StorageConfig(c))
	if err != nil {
		return nil, err
	}
	log.WithField("driver", c.Storage.Driver).Info("Loaded storage backend")
	return s, nil
}
