package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GriffinCanCode/rnpad/internal/domain/identity"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/config"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/logging"
	"github.com/GriffinCanCode/rnpad/internal/providers/builder"
)

// Options carries dependencies that tests replace
type Options struct {
	// Dispatcher overrides the HTTP dispatcher built from flags
	Dispatcher builder.Dispatcher
}

// NewRootCmd builds the rnpad command tree. Each call owns its own viper
// instance.
func NewRootCmd(opts Options) *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "rnpad",
		Short: "rnpad submits React Native snippets to the playground builder",
		Long: `rnpad is the terminal client for the reactnative-pad playground.

It sends a single App.js to the same remote builder the web editor uses and
prints the preview URL, which can be opened on a device or in a browser.

Common workflows:

  Run a file:
    rnpad run App.js

  Run from stdin as a tablet preview:
    cat App.js | rnpad run --device tablet --json

  Show the identity sent with every build:
    rnpad id

Configuration:
  Flags, environment variables or a YAML config file
  (default $XDG_CONFIG_HOME/rnpad/config.yaml):
    BUILDER_URL / RNPAD_BUILDER    builder endpoint
    RNPAD_TIMEOUT                  build timeout
    RNPAD_DEVICE                   default device profile
    RNPAD_IDENTITY                 identity file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	root.PersistentFlags().String("identity", "", "identity file (default: user config dir)")
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	_ = v.BindPFlag("identity", root.PersistentFlags().Lookup("identity"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(
		newRunCmd(v, opts),
		newIDCmd(v),
		newDevicesCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code
func Execute(ctx context.Context) int {
	root := NewRootCmd(Options{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func loadConfig(v *viper.Viper, cfgFile string) error {
	defaults := config.Default()
	v.SetDefault("builder", defaults.Builder.URL)
	v.SetDefault("timeout", defaults.Builder.Timeout)

	v.SetEnvPrefix("RNPAD")
	v.AutomaticEnv()
	_ = v.BindEnv("builder", "RNPAD_BUILDER", "BUILDER_URL")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(dir, "rnpad"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger(v *viper.Viper) *logging.Logger {
	level := "error"
	if v.GetBool("verbose") {
		level = "debug"
	}
	return logging.FromLevel(level, true)
}

// identityStore opens the configured identity file, falling back to memory
// when no per-user location exists.
func identityStore(v *viper.Viper) (identity.Store, error) {
	path := v.GetString("identity")
	if path == "" {
		p, err := identity.DefaultFilePath()
		if err != nil {
			return identity.NewMemoryStore(), err
		}
		path = p
	}
	return identity.NewFileStore(path), nil
}
