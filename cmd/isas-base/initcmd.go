package main

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i-SAS/isas-base/config"
	"github.com/i-SAS/isas-base/manager"
	"github.com/i-SAS/isas-base/storage/influx"
	"github.com/i-SAS/isas-base/storage/postgres"
)

func InitRDBCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "init-rdb",
		Short: "migrate the relational store and seed it from the datadrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(viper.GetString("config"))
			if err != nil {
				return err
			}
			logger := newLogger()

			store, err := postgres.New(cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := manager.New(manager.Options{
				Datadrive: cfg.Datadrive,
				Tables:    store,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			return mgr.InitRDB(cmd.Context(), manager.SystemPostgres)
		},
	}
}

func InitTSDBCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "init-tsdb",
		Short: "seed the time-series store from the datadrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(viper.GetString("config"))
			if err != nil {
				return err
			}
			logger := newLogger()

			store, err := influx.New(cfg.Influx, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			mgr, err := manager.New(manager.Options{
				Datadrive: cfg.Datadrive,
				Series:    store,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			return mgr.InitTSDB(cmd.Context(), manager.SystemInflux)
		},
	}
}

func newLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "isas-base",
		Level: hclog.LevelFromString(viper.GetString("log_level")),
	})
}
