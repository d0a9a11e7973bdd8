package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const typeUsage = "Value type: string, int, int64, float64, bool, duration, strings or json"

func (c *CLI) newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := c.app.Get(cmd.Context(), args[0], options(cmd))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
	cmd.Flags().StringP("type", "t", "", typeUsage)
	return cmd
}

func (c *CLI) newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Assign a value to a setting, registering it when it does not exist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Set(cmd.Context(), args[0], args[1], options(cmd))
		},
	}
	cmd.Flags().StringP("type", "t", "", typeUsage)
	return cmd
}

func (c *CLI) newUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Unset(cmd.Context(), args[0], options(cmd))
		},
	}
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch KEY",
		Short: "Print the value of a setting every time it changes (file backend only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return c.app.Watch(cmd.Context(), args[0], options(cmd), func(value string) {
				_, _ = fmt.Fprintln(out, value)
			})
		},
	}
	cmd.Flags().StringP("type", "t", "", typeUsage)
	return cmd
}
