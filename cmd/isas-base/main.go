package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "isas-base",
		Short:        "administer the i-SAS data layer",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("config", "", "path to the config file")
	cmd.PersistentFlags().String("log-level", "info", "log level")
	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindEnv("config", "ISAS_CONFIG")
	_ = viper.BindEnv("log_level", "ISAS_LOG_LEVEL")

	cmd.AddCommand(InitRDBCMD(), InitTSDBCMD())
	return cmd
}
