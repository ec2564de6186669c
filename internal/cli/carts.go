package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewCartsCommand creates the carts command, which prints the current cart
// registry from the configured store.
func NewCartsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carts",
		Short: "List all carts and their current state",
		Long: `Print the full cart registry. Reads the configured store directly, so
this works whether or not the server is running.

Example:
  cartsync carts
  cartsync carts --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCarts(rootOpts, cmd)
		},
	}

	return cmd
}

func runCarts(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	eng, st, hub, err := openEngine(cmd.Context(), cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()
	defer hub.Close()

	carts := eng.Carts()

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(carts)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFLOOR\tSTATE\tACTIVE")
	for _, c := range carts {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%t\n", c.ID, c.Name, c.Floor, c.State, c.Active)
	}
	return w.Flush()
}
