package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command with its clear subcommand.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the action history, newest first",
		Long: `Print the full history log from the configured store, newest entry
first.

Example:
  cartsync history
  cartsync history --format json
  cartsync history clear --user admin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd)
		},
	}

	cmd.AddCommand(newHistoryClearCommand(rootOpts))
	return cmd
}

func runHistory(opts *RootOptions, cmd *cobra.Command) error {
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

	history := eng.History()

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(history)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCART\tACTION\tUSER")
	for _, e := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.CartName, e.Action, e.User)
	}
	return w.Flush()
}

// newHistoryClearCommand creates the destructive clear subcommand. There is
// no confirmation and no undo, matching the server operation.
func newHistoryClearCommand(rootOpts *RootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Erase the entire action history",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(rootOpts)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}

			eng, st, hub, err := openEngine(cmd.Context(), cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open store", err)
			}
			defer st.Close()
			defer hub.Close()

			eng.ClearHistory(cmd.Context(), user)
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "actor label recorded in the server log")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
