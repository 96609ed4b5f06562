package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GriffinCanCode/rnpad/internal/domain/device"
	"github.com/GriffinCanCode/rnpad/internal/domain/identity"
)

func newIDCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the identity sent with every build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := identityStore(v)
			if err != nil {
				return err
			}
			p := identity.NewProvider(store)
			token := p.GetOrCreate(cmd.Context())
			if p.Ephemeral() {
				return fmt.Errorf("identity file is not writable; %s would change on every run", token)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List device profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tLABEL\tSIZE\tNOTCH")
			for _, k := range device.Kinds {
				p, _ := device.Lookup(k)
				fmt.Fprintf(w, "%s\t%s\t%dx%d\t%t\n", p.Kind, p.Label, p.Width, p.Height, p.Notch)
			}
			return w.Flush()
		},
	}
}
