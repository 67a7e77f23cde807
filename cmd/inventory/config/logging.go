package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/rio-inventory/inventory/internal/logger"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/inventory
//	    stderr: false
//	  internal:
//	    dir: /var/log/inventory
//	    stderr: false
//	    level: INFO
//	    json: false
type loggingConf struct {
	logger.Config `yaml:",inline"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (log *loggingConf) validate() error {
	if err := checkLoggingDirExists(log.Access.Dir); err != nil {
		return err
	}
	return checkLoggingDirExists(log.Internal.Dir)
}

var defaultLoggingConf = loggingConf{
	Config: logger.Config{
		Internal: logger.InternalConf{
			Level: "INFO",
		},
	},
}
