package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/trafficcontrol/logger"
)

// RootCommand runs the experiment when invoked without a subcommand
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "trafficcontrol",
		Short:         "Run reinforcement learning traffic signal experiments",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			UpdateFlags()
			logger.Initialize(flags.LogLevel, flags.LogFormat, flags.LogOutput)
		},
		RunE: runE,
	}
	AddFlags(cmd)

	cmd.AddCommand(
		RunCommand(),
		ValidateCommand(),
		InspectModelCommand(),
	)

	return cmd
}
