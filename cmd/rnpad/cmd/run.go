package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/rnpad/internal/domain/device"
	"github.com/GriffinCanCode/rnpad/internal/domain/host"
	"github.com/GriffinCanCode/rnpad/internal/domain/identity"
	"github.com/GriffinCanCode/rnpad/internal/domain/preview"
	"github.com/GriffinCanCode/rnpad/internal/domain/source"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/config"
	"github.com/GriffinCanCode/rnpad/internal/providers/builder"
	"github.com/GriffinCanCode/rnpad/internal/shared/utils"
)

// result is the --json output
type result struct {
	Phase      preview.Phase `json:"phase"`
	URL        string        `json:"url,omitempty"`
	Error      string        `json:"error,omitempty"`
	Kind       builder.Kind  `json:"kind,omitempty"`
	Generation uint64        `json:"generation"`
	Frame      *host.Frame   `json:"frame,omitempty"`
}

func newRunCmd(v *viper.Viper, opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Build a snippet and print its preview URL",
		Long: `Submit one App.js to the builder and wait for the preview URL.

The source is read from the file argument, or from stdin when no file is
given. Empty input submits the starter example.

Example:
  rnpad run App.js
  rnpad run --device tablet --timeout 30s App.js`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, v, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.String("builder", "", "builder endpoint")
	flags.Duration("timeout", 0, "build timeout")
	flags.StringP("device", "d", string(device.Compact), "device profile (compact|tablet)")
	flags.Bool("json", false, "print the result as JSON")
	_ = v.BindPFlag("builder", flags.Lookup("builder"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = v.BindPFlag("device", flags.Lookup("device"))
	_ = v.BindPFlag("json", flags.Lookup("json"))

	return cmd
}

func runBuild(cmd *cobra.Command, v *viper.Viper, opts Options, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(v)
	defer func() { _ = logger.Sync() }()

	kind, err := device.ParseKind(v.GetString("device"))
	if err != nil {
		return err
	}
	selector := device.NewSelector()
	selector.Select(kind)

	code, err := readSource(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := utils.ValidateCode(code); err != nil {
		return err
	}

	d := opts.Dispatcher
	if d == nil {
		cfg := config.Default().Builder
		cfg.URL = v.GetString("builder")
		if t := v.GetDuration("timeout"); t > 0 {
			cfg.Timeout = t
		}
		hd, err := builder.NewHTTPDispatcher(cfg, builder.WithLogger(logger.Named("builder")))
		if err != nil {
			return err
		}
		d = hd
	}

	store, err := identityStore(v)
	if err != nil {
		logger.Warn("Falling back to in-memory identity", zap.Error(err))
	}
	browser := identity.NewProvider(store, identity.WithLogger(logger.Named("identity"))).GetOrCreate(ctx)

	buf := source.NewBufferWith(code)
	session := preview.NewSession("", preview.WithLogger(logger.Named("preview")))
	snap, err := session.Run(ctx, browser, buf.Snapshot(), d)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		res := result{
			Phase:      snap.Phase,
			URL:        snap.LastURL,
			Error:      snap.Error,
			Kind:       snap.ErrorKind,
			Generation: snap.Generation,
		}
		if snap.Phase == preview.PhaseSuccess {
			frame := host.New(selector).Frame(snap)
			res.Frame = &frame
		}
		data, err := sonic.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else if snap.Phase == preview.PhaseSuccess {
		fmt.Fprintln(out, snap.LastURL)
	}

	if snap.Phase != preview.PhaseSuccess {
		return errors.New(snap.Error)
	}
	return nil
}

func readSource(args []string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(io.LimitReader(stdin, utils.MaxCodeSize+1))
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	if len(data) == 0 {
		return source.Example, nil
	}
	return source.Decode(data)
}
