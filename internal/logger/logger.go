// Package logger configures the process wide logrus logger and provides the
// writer used for the http access log.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	internalLogFile = "inventory.log"
	accessLogFile   = "access.log"
)

// Conf configures one log sink
type Conf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// InternalConf configures the application log
type InternalConf struct {
	Conf  `yaml:",inline"`
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config holds the `logging` block
type Config struct {
	Access   Conf         `yaml:"access"`
	Internal InternalConf `yaml:"internal"`
}

var accessWriter io.Writer = os.Stderr

// Init sets up the logrus standard logger and the access log writer from the
// passed Config
func Init(conf Config) error {
	if conf.Internal.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level := log.InfoLevel
	if conf.Internal.Level != "" {
		var err error
		level, err = log.ParseLevel(strings.ToLower(conf.Internal.Level))
		if err != nil {
			return errors.Wrap(err, "invalid log level")
		}
	}
	log.SetLevel(level)

	out, err := writer(conf.Internal.Conf, internalLogFile)
	if err != nil {
		return err
	}
	log.SetOutput(out)

	if accessWriter, err = writer(conf.Access, accessLogFile); err != nil {
		return err
	}
	return nil
}

// AccessWriter returns the writer for the http access log
func AccessWriter() io.Writer {
	return accessWriter
}

func writer(conf Conf, filename string) (io.Writer, error) {
	var writers []io.Writer
	if conf.Dir != "" {
		f, err := os.OpenFile(
			filepath.Join(conf.Dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open log file in '%s'", conf.Dir)
		}
		writers = append(writers, f)
	}
	if conf.StdErr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}
