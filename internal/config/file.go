package config

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the command line flags. Top-level keys apply to every
// subcommand, the client and server sections only to theirs. Keys are flag
// names, values use flag syntax:
//
//	log-level: info
//	client:
//	  interval: 10ms
//	  count: 500
//	server:
//	  port: 7777
type FileConfig struct {
	Client map[string]string `yaml:"client"`
	Server map[string]string `yaml:"server"`
	Common map[string]string `yaml:",inline"`
}

func readConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// loadConfigFile fills in flags the user did not set explicitly
func loadConfigFile(fs *flag.FlagSet, path string, section string) error {
	if path == "" {
		return nil
	}
	fc, err := readConfigFile(path)
	if err != nil {
		return err
	}

	if err := applyDefaults(fs, fc.Common); err != nil {
		return err
	}
	switch section {
	case "client":
		return applyDefaults(fs, fc.Client)
	case "server":
		return applyDefaults(fs, fc.Server)
	}
	return nil
}

func applyDefaults(fs *flag.FlagSet, values map[string]string) error {
	for name, value := range values {
		if fs.Lookup(name) == nil {
			return fmt.Errorf("unknown config key %q", name)
		}
		if name == "config" || fs.Changed(name) {
			continue
		}
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("config key %q: %w", name, err)
		}
	}
	return nil
}
