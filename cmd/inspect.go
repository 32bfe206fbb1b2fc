package cmd

import (
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/zeu5/trafficcontrol/agents"
	"github.com/zeu5/trafficcontrol/util"
)

func InspectModelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect-model <file>",
		Short: "Print a summary of a persisted model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := agents.InspectModel(args[0])
			if err != nil {
				return err
			}
			au := aurora.NewAurora(util.IsTerminal(os.Stdout))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s model, version %d\n", au.Green(args[0]), s.AgentType, s.Version)
			fmt.Fprintf(w, "  actions: %d\n", s.Actions)
			fmt.Fprintf(w, "  size:    %d\n", s.Size)
			for _, k := range util.SortedKeys(s.Hyperparameters) {
				fmt.Fprintf(w, "  %s: %v\n", au.Cyan(k), s.Hyperparameters[k])
			}
			return nil
		},
	}
}
