// Package main provides the templatecheck CLI and HTTP service entry point.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"templatecheck/internal/config"
	"templatecheck/internal/logging"
)

var (
	configPath string
	pretty     bool
	logLevel   string
)

// errInvalid the checked file does not match its template
var errInvalid = errors.New("file does not match template")

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errInvalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "templatecheck",
		Short: "Detect and validate financial report spreadsheet templates",
		Long: `templatecheck identifies which reference template an Excel or CSV
file was built from and checks its sheet and column structure against it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: config.toml beside the executable)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level")

	rootCmd.AddCommand(
		newServeCmd(),
		newDetectCmd(),
		newValidateCmd(),
		newBatchCmd(),
		newTemplatesCmd(),
		newInitConfigCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	cfg, info, err := config.LoadConfigWithInfo(configPath)
	if err != nil {
		return nil, info, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, info, nil
}

func newLogger(cfg *config.AppConfig) *zap.Logger {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed, logging disabled: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

func writeJSON(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
