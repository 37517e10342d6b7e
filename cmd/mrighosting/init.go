package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mrighosting/pkg/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default mrighosting configuration file",
		Long: `Init writes a configuration file holding the default analysis,
processing, output and logging settings.

Without -o the file is written to $MRIGHOSTING_CONFIG or, if unset, to
mrighosting/config.yaml under the XDG config directory.

Examples:
  # Create the default configuration
  mrighosting init

  # Create config file at a specific path
  mrighosting init -o ghosting.yaml

  # Force overwrite existing file
  mrighosting init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = config.DefaultConfigPath()
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	if err := config.CreateDefaultConfigFile(outputPath); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	return nil
}
