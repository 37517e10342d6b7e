package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mrighosting/pkg/config"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mrighosting",
		Short: "Measure MRI ghosting artifacts in phantom images",
		Long: `mrighosting computes the IPEM Report 112 ghosting percentage for
single-slice MRI phantom acquisitions stored as DICOM files.

For every file it locates the phantom, samples a signal window, four
background windows and the brightest ghost window along the phase encoding
axis, and reports 100 x (ghost - noise) / phantom.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default $MRIGHOSTING_CONFIG or the XDG config dir)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewResultsCmd())

	return cmd
}

// loadConfig reads the config named by --config, falling back to the
// default location
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.LoadConfig(path)
}

// initLogger builds the logger from the logging section; --verbose forces
// debug level with a coloured text formatter
func initLogger(cfg *config.Config, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		return logger
	}

	logger.SetLevel(level)
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
