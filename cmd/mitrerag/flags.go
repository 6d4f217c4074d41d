package main

import (
	"github.com/spf13/cobra"

	"github.com/Jaiwincr7/rag-based-model/cmd/mitrerag/internal"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	// FormatText is human-readable text output
	FormatText OutputFormat = "text"
	// FormatJSON is structured JSON output
	FormatJSON OutputFormat = "json"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: $MITRERAG_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.HomeDir, "home", "", "mitrerag home directory (default: ~/.mitrerag)")
}

// Validate rejects flag combinations that cannot be honoured.
func (f *GlobalFlags) Validate() error {
	if f.OutputFormat != string(FormatText) && f.OutputFormat != string(FormatJSON) {
		return internal.NewCLIError(internal.ExitConfigError, "--output must be text or json, got "+f.OutputFormat)
	}
	if f.Verbose && f.Quiet {
		return internal.NewCLIError(internal.ExitConfigError, "--verbose and --quiet cannot be used together")
	}
	return nil
}

// LogLevel maps --verbose and --quiet onto a level, or "" to keep the
// configured one.
func (f *GlobalFlags) LogLevel() string {
	switch {
	case f.Verbose:
		return "debug"
	case f.Quiet:
		return "error"
	}
	return ""
}
