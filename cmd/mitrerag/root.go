package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jaiwincr7/rag-based-model/internal/config"
)

// cli carries state shared by every subcommand of one invocation.
type cli struct {
	flags      GlobalFlags
	configPath string
	cfg        *config.Config
}

// commands that run without a loaded configuration
var skipConfig = map[string]bool{
	"init":       true,
	"version":    true,
	"help":       true,
	"completion": true,
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "mitrerag",
		Short: "mitrerag - question answering over MITRE ATT&CK",
		Long: `mitrerag ingests the MITRE ATT&CK enterprise STIX bundle into a similarity
index and answers questions about techniques, mitigations and tactics.

  mitrerag ingest --bundle enterprise-attack.json
  mitrerag ask "What are the defenses for Keylogging?"
  mitrerag serve`,
		PersistentPreRunE: c.loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	RegisterGlobalFlags(root, &c.flags)

	root.AddCommand(newIngestCmd(c))
	root.AddCommand(newAskCmd(c))
	root.AddCommand(newServeCmd(c))
	root.AddCommand(newConfigCmd(c))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context, root *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return root.ExecuteContext(ctx)
}

// resolveConfigPath applies --config, then --home, then MITRERAG_HOME.
func (c *cli) resolveConfigPath() string {
	if c.flags.ConfigFile != "" {
		return c.flags.ConfigFile
	}
	homeDir := c.flags.HomeDir
	if homeDir == "" {
		homeDir = os.Getenv("MITRERAG_HOME")
	}
	if homeDir == "" {
		homeDir = config.DefaultHomeDir()
	}
	return config.DefaultConfigPath(homeDir)
}

// loadConfig runs before every command. An explicit --config must exist; the
// default location falls back to built-in defaults.
func (c *cli) loadConfig(cmd *cobra.Command, args []string) error {
	if err := c.flags.Validate(); err != nil {
		return err
	}
	c.configPath = c.resolveConfigPath()

	if skipConfig[cmd.Name()] {
		return nil
	}

	loader := config.NewConfigLoader(config.NewValidator())
	var (
		cfg *config.Config
		err error
	)
	if c.flags.ConfigFile != "" {
		cfg, err = loader.Load(c.configPath)
	} else {
		cfg, err = loader.LoadWithDefaults(c.configPath)
	}
	if err != nil {
		return err
	}

	if level := c.flags.LogLevel(); level != "" {
		cfg.Logging.Level = level
	}
	c.cfg = cfg
	return nil
}
