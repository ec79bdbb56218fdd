// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/observability"
)

type contextKey string

// configKey carries the validated configuration from the root command's
// PersistentPreRunE to subcommands.
const configKey contextKey = "lancet-config"

// NewRootCommand builds a pristine root command. Each invocation gets its
// own Viper instance so flags and config never leak between executions.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "lancet-cli",
		Short:   "Lancet drives browser remote-debugging endpoints from the command line.",
		Long: `Lancet attaches to a running browser's remote-debugging endpoint
(Chrome, Edge or Firefox) and exposes its pages over a uniform set of
commands: navigation, screenshots, DOM queries, script evaluation and
console/network capture.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "lancet-cli"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			var cfg config.Config
			if err := v.Unmarshal(&cfg); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "lancet-cli"})
				return fmt.Errorf("failed to unmarshal config: %w", err)
			}
			if err := cfg.Client.Validate(); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "lancet-cli"})
				return err
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting lancet-cli",
				zap.String("version", Version),
				zap.String("protocol", cfg.Client.Protocol))

			// Subcommands read the validated config from the context.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, &cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("protocol", "", "debugging protocol: chrome, edge or firefox")
	rootCmd.PersistentFlags().String("host", "", "host of the debugging endpoint")
	rootCmd.PersistentFlags().IntP("port", "p", 0, "port of the debugging endpoint (0 scans the protocol's default range)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-command reply timeout")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newIdentifyCmd(),
		newNavigateCmd(),
		newScreenshotCmd(),
		newEvalCmd(),
		newDOMCmd(),
		newConsoleCmd(),
		newNetworkCmd(),
		newClickCmd(),
		newSetValueCmd(),
	)

	return rootCmd
}

// Execute runs the root command under a signal-aware context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// initializeConfig layers the config file, LANCET_* environment variables
// and command-line flags onto the given Viper instance, flags winning.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("LANCET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults, env vars and flags carry the run.
	}

	for flag, key := range map[string]string{
		"protocol": "client.protocol",
		"host":     "client.host",
		"port":     "client.port",
		"timeout":  "client.command_timeout",
	} {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// configFromContext recovers the config placed there by PersistentPreRunE.
func configFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration missing from command context")
	}
	return cfg, nil
}
