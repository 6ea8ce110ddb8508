// Package config loads the service configuration from a YAML file, with
// environment fallbacks for every setting.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/i-SAS/isas-base/storage/influx"
	"github.com/i-SAS/isas-base/storage/postgres"
	"github.com/i-SAS/isas-base/util"
)

type Config struct {
	Datadrive string            `json:"datadrive"`
	Postgres  postgres.Settings `json:"postgres"`
	Influx    influx.Settings   `json:"influx"`
}

const (
	DefaultConfigFile = "isas-base.yaml"
	DefaultDatadrive  = "/root/datadrive"

	DefaultPostgresHost = "postgres:5432"
	DefaultInfluxAddr   = "http://influxdb:8086"
)

// LoadConfig reads fileName and fills every missing setting from the
// environment. An empty fileName reads the default file when it exists and
// falls back to environment-only configuration when it does not.
func LoadConfig(fileName string) (Config, error) {
	var cfg *Config
	if fileName == "" {
		fileName = DefaultConfigFile
		if _, err := os.Stat(fileName); os.IsNotExist(err) {
			return assemble(Config{}), nil
		}
	}

	cfg, err := LoadConfigFromFile(fileName)
	if err != nil {
		return Config{}, fmt.Errorf("load config '%s': %v", fileName, err)
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return assemble(*cfg), nil
}

func LoadConfigFromFile(fileName string) (*Config, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %s", fileName, err)
	}
	defer f.Close()

	return LoadConfigFromReader(f)
}

func LoadConfigFromReader(r io.Reader) (*Config, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, nil
	}

	cfg := new(Config)

	err = yaml.Unmarshal(buf.Bytes(), cfg)
	if err != nil {
		return nil, fmt.Errorf("config unmarshal: %v", err)
	}

	return cfg, nil
}

func assemble(cfg Config) Config {
	cfg.Datadrive = util.FirstNonEmptyString(cfg.Datadrive, os.Getenv("DATADRIVE"), DefaultDatadrive)

	cfg.Postgres.Host = util.FirstNonEmptyString(cfg.Postgres.Host, os.Getenv("POSTGRES_HOST"), DefaultPostgresHost)
	cfg.Postgres.User = util.FirstNonEmptyString(cfg.Postgres.User, os.Getenv("POSTGRES_USER"))
	cfg.Postgres.Password = util.FirstNonEmptyString(cfg.Postgres.Password, os.Getenv("POSTGRES_PASSWORD"))
	cfg.Postgres.Database = util.FirstNonEmptyString(cfg.Postgres.Database, os.Getenv("POSTGRES_DATABASE"))

	cfg.Influx.Addr = util.FirstNonEmptyString(cfg.Influx.Addr, os.Getenv("INFLUXDB_ADDR"), DefaultInfluxAddr)
	cfg.Influx.Database = util.FirstNonEmptyString(cfg.Influx.Database, os.Getenv("INFLUXDB_DATABASE"))
	cfg.Influx.Username = util.FirstNonEmptyString(cfg.Influx.Username, os.Getenv("INFLUXDB_USERNAME"))
	cfg.Influx.Password = util.FirstNonEmptyString(cfg.Influx.Password, os.Getenv("INFLUXDB_PASSWORD"))

	return cfg
}
