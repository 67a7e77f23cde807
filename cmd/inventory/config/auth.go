package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/rio-inventory/inventory/auth"
)

type authConf struct {
	TenantID    string                  `yaml:"tenant_id"`
	ClientID    string                  `yaml:"client_id"`
	Authority   string                  `yaml:"authority"`
	Audiences   []string                `yaml:"audiences"`
	IssuerHosts []string                `yaml:"issuer_hosts"`
	HTTPTimeout duration.DurationOption `yaml:"http_timeout"`
	Leeway      duration.DurationOption `yaml:"leeway"`
	Disabled    bool                    `yaml:"disabled"`
}

func (c *authConf) validate(production bool) error {
	if c.Disabled {
		if production {
			return errors.New("authentication must not be disabled in production")
		}
		return nil
	}
	if c.TenantID == "" || c.ClientID == "" {
		return errors.New("error in auth conf: tenant_id and client_id are required")
	}
	return nil
}

// AuthConfig returns the auth.Config for the passed Config
func AuthConfig(c *Config) auth.Config {
	return auth.Config{
		TenantID:    c.Auth.TenantID,
		ClientID:    c.Auth.ClientID,
		Authority:   c.Auth.Authority,
		Audiences:   c.Auth.Audiences,
		IssuerHosts: c.Auth.IssuerHosts,
		HTTPTimeout: c.Auth.HTTPTimeout.Duration(),
		Leeway:      c.Auth.Leeway.Duration(),
		Disabled:    c.Auth.Disabled,
	}
}

var defaultAuthConf = authConf{
	Authority:   auth.DefaultAuthority,
	HTTPTimeout: duration.DurationOption(5 * time.Second),
	Leeway:      duration.DurationOption(time.Minute),
}
