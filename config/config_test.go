package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_LoadConfig(t *testing.T) {
	cfg, err := LoadConfig("testdata/conf.yaml")

	require.NoError(t, err)

	require.Equal(t, "/mnt/datadrive", cfg.Datadrive)
	require.Equal(t, "db.example.com:5432", cfg.Postgres.Host)
	require.Equal(t, "isas", cfg.Postgres.User)
	require.Equal(t, "secret", cfg.Postgres.Password)
	require.Equal(t, "metadata", cfg.Postgres.Database)
	require.Equal(t, "http://influx.example.com:8086", cfg.Influx.Addr)
	require.Equal(t, "dynamic_data", cfg.Influx.Database)
}

func Test_LoadConfig_EnvFallback(t *testing.T) {
	t.Setenv("DATADRIVE", "/srv/datadrive")
	t.Setenv("POSTGRES_HOST", "pg:5432")
	t.Setenv("INFLUXDB_DATABASE", "series")

	cfg, err := LoadConfig("testdata/empty.yaml")

	require.NoError(t, err)
	require.Equal(t, "/srv/datadrive", cfg.Datadrive)
	require.Equal(t, "pg:5432", cfg.Postgres.Host)
	require.Equal(t, "series", cfg.Influx.Database)
	require.Equal(t, DefaultInfluxAddr, cfg.Influx.Addr)
}

func Test_LoadConfig_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("INFLUXDB_ADDR", "")

	cfg, err := LoadConfig("testdata/empty.yaml")

	require.NoError(t, err)
	require.Equal(t, DefaultPostgresHost, cfg.Postgres.Host)
	require.Equal(t, DefaultInfluxAddr, cfg.Influx.Addr)
}

func Test_LoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("testdata/no-such-file.yaml")

	require.Error(t, err)
}
