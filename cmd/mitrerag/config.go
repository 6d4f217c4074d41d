package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jaiwincr7/rag-based-model/cmd/mitrerag/internal"
	"github.com/Jaiwincr7/rag-based-model/internal/config"
)

const redacted = "********"

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mitrerag configuration",
		Long: `The config command shows, initialises and validates configuration.

Configuration is stored in YAML at ~/.mitrerag/config.yaml by default.
Every key can be overridden with a MITRERAG_ environment variable, for
example MITRERAG_INDEX_BACKEND=badger.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := redact(*c.cfg)
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// loading already validated it
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid (%s)\n", c.configPath)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeDefaultConfig(c.configPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", c.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return internal.NewCLIError(internal.ExitConfigError,
			fmt.Sprintf("%s already exists (use --force to overwrite)", path))
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return internal.WrapError(internal.ExitConfigError, "cannot create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return internal.WrapError(internal.ExitConfigError, "cannot write config file", err)
	}
	return nil
}

// redact masks credentials before the config is printed.
func redact(cfg config.Config) config.Config {
	if cfg.GraphExport.Neo4j.Password != "" {
		cfg.GraphExport.Neo4j.Password = redacted
	}
	if u, err := url.Parse(cfg.Cache.URL); err == nil && u.User != nil {
		cfg.Cache.URL = u.Redacted()
	}
	return cfg
}
