package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i-SAS/isas-base/config"
	"github.com/i-SAS/isas-base/download"
)

const (
	dataIDFlagName     = "data-id"
	dataSourceFlagName = "data-source"
	manifestFlagName   = "manifest"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "isas-download",
		Short:        "download datadrive archives from external data sources",
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.Flags().String(dataIDFlagName, "", "identifier of the archive to download")
	cmd.Flags().String(dataSourceFlagName, "", "data source, one of: "+download.SourceGoogleDrive)
	cmd.Flags().String(manifestFlagName, "", "path to a manifest file listing archives to download")

	_ = viper.BindPFlag("data_id", cmd.Flags().Lookup(dataIDFlagName))
	_ = viper.BindPFlag("data_source", cmd.Flags().Lookup(dataSourceFlagName))
	_ = viper.BindEnv("data_id", "DATA_ID")
	_ = viper.BindEnv("data_source", "DATA_SOURCE")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{Name: "isas-download"})
	downloader, err := download.New(download.Options{
		Datadrive: cfg.Datadrive,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if manifest, _ := cmd.Flags().GetString(manifestFlagName); manifest != "" {
		return downloader.DownloadManifest(cmd.Context(), manifest)
	}

	dataID := viper.GetString("data_id")
	dataSource := viper.GetString("data_source")
	if dataID == "" {
		return fmt.Errorf("data_id is not specified")
	}
	if dataSource == "" {
		return fmt.Errorf("data_source is not specified")
	}
	return downloader.Download(cmd.Context(), dataID, dataSource)
}
