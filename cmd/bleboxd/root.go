package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-blebox/internal/infrastructure/logging"
)

// configEnv names the config file when --config is not given.
const configEnv = "BLEBOXD_CONFIG"

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "bleboxd",
		Short: "BleBox gateway for MQTT, InfluxDB and HTTP",
		Long: `bleboxd talks to BleBox boxes over their local HTTP API. It polls every
configured or discovered box, publishes feature state and health to MQTT,
writes numeric readings to InfluxDB and accepts commands over MQTT and REST.`,
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(fmt.Sprintf("bleboxd %s\n", version))

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (env: "+configEnv+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newRunCmd(opts),
		newProbeCmd(opts),
		newDiscoverCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return root
}

// resolveConfigPath returns the config path from flag or environment.
func (o *rootOptions) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return os.Getenv(configEnv)
}

// loadConfig loads the config file and applies the --log-level override.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// cliLogger returns a text logger on stderr for one-shot commands.
func (o *rootOptions) cliLogger() *logging.Logger {
	level := o.logLevel
	if level == "" {
		level = "warn"
	}
	return logging.New(config.LoggingConfig{Level: level, Format: "text", Output: "stderr"}, version)
}
