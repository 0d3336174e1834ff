package pauldb

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// OpenOptions configures a database open. The host-facing entry points
// accept it in code; LoadOptions reads the same shape from a TOML file.
type OpenOptions struct {
	// Dir is the on-disk directory for file/local_kv/indexed backends;
	// ignored by in_memory.
	Dir string `toml:"dir"`
	// Create allows the file-backed medium to be created if absent.
	Create bool `toml:"create"`
	// PageOrder is the B-tree order used for every secondary index a
	// table handle materializes; zero keeps the engine default.
	PageOrder int `toml:"page_order"`
	// LogLevel is a logrus level name ("debug", "info", "warn",
	// "error"); empty keeps the default.
	LogLevel string `toml:"log_level"`
}

// LoadOptions reads an OpenOptions value from a TOML file, the form the
// CLI front door uses.
func LoadOptions(path string) (OpenOptions, error) {
	var opts OpenOptions
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return OpenOptions{}, fmt.Errorf("pauldb: loading options from %s: %w", path, err)
	}
	return opts, nil
}

// resolveLogger builds the *logrus.Logger an Open call injects into the
// catalog and every table handle it resolves.
func (o OpenOptions) resolveLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if o.LogLevel != "" {
		if lvl, err := logrus.ParseLevel(o.LogLevel); err == nil {
			log.SetLevel(lvl)
		}
	}
	return log
}
