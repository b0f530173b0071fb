package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zypin-testing/zypin-core/internal/config"
	"github.com/zypin-testing/zypin-core/internal/logger"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires the per-invocation context.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	startFlags := &StartFlags{}
	stopFlags := &StopFlags{}
	statusFlags := &StatusFlags{}
	listFlags := &ListFlags{}

	cmd := &command{}

	root := &cobra.Command{
		Use:   "zypin",
		Short: "Test-automation provider discovery and supervision tool",
		Long: `Zypin discovers capability-provider packages installed on this machine,
starts them as supervised child processes and tracks them across
invocations.

Examples:
  zypin list                        # Show discovered providers
  zypin start selenium playwright   # Start providers, serve status
  zypin status                      # Ask a running controller what it tracks
  zypin stop                        # Terminate every tracked package`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(globalFlags.ConfigPath)
			if err != nil {
				return err
			}
			cmd.cfg = cfg
			cmd.logger = logger.New(cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")

	root.AddCommand(
		createStartCommand(cmd, startFlags),
		createStopCommand(cmd, stopFlags),
		createStatusCommand(cmd, statusFlags),
		createListCommand(cmd, listFlags),
	)
	return root
}

func createStartCommand(c *command, flags *StartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <package> [package...]",
		Short: "Start provider packages and supervise them",
		Long: `Start one or more discovered provider packages as child processes.
The command keeps running, serving the status endpoint, until it receives
an interrupt or terminate signal; then it cleans up every tracked child.

Examples:
  zypin start selenium
  zypin start selenium playwright`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.Packages = args
			return c.Start(*flags)
		},
	}
	return cmd
}

func createStopCommand(c *command, flags *StopFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Terminate all tracked packages",
		Long: `Terminate every package recorded in the persisted state and clear it.
Safe to run when nothing is tracked or when the processes already exited.

Examples:
  zypin stop`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Stop(*flags)
		},
	}
}

func createStatusCommand(c *command, flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what a running controller is tracking",
		Long: `Probe the status service of a running controller and print its
snapshot. An unreachable controller prints "no controller running".

Examples:
  zypin status
  zypin status --url=http://127.0.0.1:8421
  zypin status --json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Status(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.URL, "url", "", "status service URL (default: configured listen address)")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 3*time.Second, "probe timeout")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print raw JSON")
	return cmd
}

func createListCommand(c *command, flags *ListFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered providers and templates",
		Long: `Scan the configured package roots and print the catalog.

Examples:
  zypin list
  zypin list --templates`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.List(*flags)
		},
	}
	cmd.Flags().BoolVar(&flags.Templates, "templates", false, "list templates instead of providers")
	return cmd
}
