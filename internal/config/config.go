package config

import (
	"os"

	"github.com/go-yaml/yaml"

	"github.com/toripushy/milkyway-calendar/internal/domain"
)

const (
	defaultListen     = ":3000"
	defaultSQLitePath = "data/records.db"
)

// Load reads the server configuration from a YAML file and fills in
// defaults for the listen address and sqlite path.
func Load(path string) (domain.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Config{}, err
	}
	defer file.Close()

	var config domain.Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return domain.Config{}, err
	}

	if config.Listen == "" {
		config.Listen = defaultListen
	}
	if config.SQLitePath == "" && config.PostgresDsn == "" {
		config.SQLitePath = defaultSQLitePath
	}

	return config, nil
}
