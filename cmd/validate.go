package cmd

import (
	"fmt"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/util"
)

func ValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the experiment configuration without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(flags.Config)
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				return fmt.Errorf("%s: %w", flags.Config, err)
			}
			au := aurora.NewAurora(util.IsTerminal(os.Stdout))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s (%s)\n", au.Green("valid"), flags.Config, util.JsonHash(doc)[:12])
			env := doc.Agents.Environment
			fmt.Fprintf(w, "environment: %s, %ds, delta %ds\n", env.Backend, env.NumSeconds, env.DeltaTime)
			for _, inst := range doc.Agents.Instances {
				fmt.Fprintf(w, "  %s: %s, %d runs", au.Bold(inst.Name), inst.AgentType, inst.RunsOr(1))
				if inst.Model != "" {
					fmt.Fprintf(w, ", model %s", inst.Model)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}
