// Package commands implements the CLI commands for knob.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/knob/internal/app"
	"go.trai.ch/knob/internal/build"
	"go.trai.ch/knob/internal/engine/migration"
)

// CLI represents the command line interface for knob.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Get(ctx context.Context, key string, opts app.Options) (string, error)
	Set(ctx context.Context, key, value string, opts app.Options) error
	Unset(ctx context.Context, key string, opts app.Options) error
	MigrateUp(ctx context.Context, target string, opts app.Options) error
	MigrateDown(ctx context.Context, target string, opts app.Options) error
	Status(ctx context.Context, opts app.Options) ([]migration.StepStatus, error)
	Watch(ctx context.Context, key string, opts app.Options, emit func(value string)) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "knob",
		Short:         "A layered settings store with ordered migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to knob.yaml (default: search upwards from the working directory)")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newGetCmd())
	rootCmd.AddCommand(c.newSetCmd())
	rootCmd.AddCommand(c.newUnsetCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newMigrateCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// options collects the flags shared by every command.
func options(cmd *cobra.Command) app.Options {
	configPath, _ := cmd.Flags().GetString("config")
	opts := app.Options{ConfigPath: configPath}
	if f := cmd.Flags().Lookup("type"); f != nil {
		opts.Type = f.Value.String()
	}
	return opts
}
