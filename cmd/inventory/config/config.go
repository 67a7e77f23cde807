package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/rio-inventory/inventory"
	"github.com/rio-inventory/inventory/storage"
)

// Environment names
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Environment variables that override the config file
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvTenantID    = "AZURE_TENANT_ID"
	EnvClientID    = "AZURE_CLIENT_ID"
	EnvDisableAuth = "DISABLE_AUTH"
	EnvEnvironment = "INVENTORY_ENVIRONMENT"
	EnvConfigFile  = "INVENTORY_CONFIG"
)

const (
	defaultEnvFile   = ".env"
	defaultConfigDir = "/etc/inventory"
)

// Config holds the complete service configuration
type Config struct {
	Environment string               `yaml:"environment"`
	Server      inventory.ServerConf `yaml:"server"`
	Storage     storageConf          `yaml:"storage"`
	Auth        authConf             `yaml:"auth"`
	Logging     loggingConf          `yaml:"logging"`
	API         apiConf              `yaml:"api"`
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

// possibleConfigFiles are searched in order if no file is passed
var possibleConfigFiles = []string{
	"config.yaml",
	filepath.Join(defaultConfigDir, "config.yaml"),
}

func defaultConfig() *Config {
	return &Config{
		Environment: EnvironmentDevelopment,
		Server: inventory.ServerConf{
			Port:        8000,
			CORSOrigins: inventory.DefaultCORSOrigins,
		},
		Storage: defaultStorageConf,
		Auth:    defaultAuthConf,
		Logging: defaultLoggingConf,
		API:     defaultAPIConf,
	}
}

// Load reads the config file, applies a .env file and the environment and
// validates the result. An empty filename searches the default locations; a
// missing config file is not an error, the defaults are used then.
func Load(filename string) error {
	c, err := load(filename, defaultEnvFile)
	if err != nil {
		return err
	}
	conf = c
	return nil
}

func load(filename, envFile string) (*Config, error) {
	c := defaultConfig()
	if filename == "" {
		filename = os.Getenv(EnvConfigFile)
	}
	if filename == "" {
		for _, f := range possibleConfigFiles {
			if fileutils.FileExists(f) {
				filename = f
				break
			}
		}
	}
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read config file '%s'", filename)
		}
		if err = yaml.Unmarshal(data, c); err != nil {
			return nil, errors.Wrapf(err, "could not parse config file '%s'", filename)
		}
		log.WithField("file", filename).Debug("read config file")
	}
	if envFile != "" && fileutils.FileExists(envFile) {
		// variables already set in the environment take precedence
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "could not load '%s'", envFile)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvEnvironment); v != "" {
		c.Environment = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		driver, dsn, err := storage.ParseDatabaseURL(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvDatabaseURL)
		}
		c.Storage.Driver = driver
		c.Storage.DSN = dsn
	}
	if v := os.Getenv(EnvTenantID); v != "" {
		c.Auth.TenantID = v
	}
	if v := os.Getenv(EnvClientID); v != "" {
		c.Auth.ClientID = v
	}
	if v := os.Getenv(EnvDisableAuth); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvDisableAuth)
		}
		c.Auth.Disabled = disabled
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvironmentProduction)
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Environment) {
	case EnvironmentDevelopment, EnvironmentProduction:
		c.Environment = strings.ToLower(c.Environment)
	default:
		return errors.Errorf(
			"invalid environment '%s', must be '%s' or '%s'", c.Environment, EnvironmentDevelopment,
			EnvironmentProduction,
		)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.Cert == "" || c.Server.TLS.Key == "") {
		return errors.New("tls is enabled but cert or key is missing")
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.Auth.validate(c.IsProduction()); err != nil {
		return err
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return c.API.validate()
}
