package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect the configured migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up [TARGET]",
		Short: "Apply pending migrations, up to and including TARGET when given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.MigrateUp(cmd.Context(), target(args), options(cmd))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [TARGET]",
		Short: "Roll back applied migrations newer than TARGET, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.MigrateDown(cmd.Context(), target(args), options(cmd))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := c.app.Status(cmd.Context(), options(cmd))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "STATUS\tSET\tMIGRATION")
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				set := s.SettingSet
				if set == "" {
					set = "-"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", state, set, s.Key)
			}
			return w.Flush()
		},
	})

	return cmd
}

func target(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
