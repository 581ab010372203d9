package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/lease-engine/config"
	"github.com/warp/lease-engine/logger"
	"go.uber.org/zap"
)

const serviceName = "lease-engine"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "lease-engine",
		Short:        "Derive unit occupancy, lease status and rent from stored leases",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: json or console")

	root.AddCommand(
		newServeCmd(opts),
		newEvaluateCmd(opts),
		newClassifyCmd(opts),
	)
	return root
}

// load reads config and applies the persistent flags on top.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	return cfg, nil
}

// logger builds the command's logger. output is a zap path such as "stderr".
func (o *rootOptions) logger(cfg config.Config, output string) (*zap.Logger, error) {
	log, err := logger.NewWithOutput(cfg.Log.Level, cfg.Log.Format, serviceName, output)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}
