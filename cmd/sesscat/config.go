package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the small table allow/deny-list configuration read by the
// build subcommand's --config flag, loaded the way database.GeneratorConfig
// is loaded from YAML. The format key is parsed but not used.
type Config struct {
	AllowTables []string `yaml:"allow_tables"`
	DenyTables  []string `yaml:"deny_tables"`
	Format      string   `yaml:"format"`
}

// LoadConfig reads and parses a YAML config file. An empty path returns
// the zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var config Config
	if err := yaml.Unmarshal(buf, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// TableAllowed applies the allow/deny lists: a non-empty allow list is a
// strict whitelist; otherwise every table not on the deny list passes.
func (c Config) TableAllowed(name string) bool {
	if len(c.AllowTables) > 0 {
		for _, t := range c.AllowTables {
			if t == name {
				return true
			}
		}
		return false
	}
	for _, t := range c.DenyTables {
		if t == name {
			return false
		}
	}
	return true
}
