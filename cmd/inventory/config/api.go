package config

import (
	"github.com/pkg/errors"
)

// apiConf holds API-related configuration
type apiConf struct {
	// MaxLimit caps the page size a client may request
	MaxLimit int `yaml:"max_limit"`
}

func (c *apiConf) validate() error {
	if c.MaxLimit < 0 {
		return errors.New("error in api conf: max_limit must not be negative")
	}
	return nil
}

var defaultAPIConf = apiConf{
	MaxLimit: 1000,
}
