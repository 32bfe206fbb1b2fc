package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zeu5/trafficcontrol/agents"
	"github.com/zeu5/trafficcontrol/analysis"
	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/environment"
	"github.com/zeu5/trafficcontrol/logger"
	"github.com/zeu5/trafficcontrol/metrics"
	"github.com/zeu5/trafficcontrol/util"
)

func RunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every configured agent, plot their metrics and save their models",
		Args:  cobra.NoArgs,
		RunE:  runE,
	}
}

func runE(cmd *cobra.Command, _ []string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os
	defer signal.Stop(sigCh)

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
			logger.GetLogger().Warn("interrupted, stopping after the current episode")
		case <-doneCh:
		}
		cancel()
	}()
	defer close(doneCh)

	result, err := RunExperiment(ctx, flags, logger.GetLogger())
	if err != nil {
		return err
	}
	PrintSummary(cmd.OutOrStdout(), result, util.IsTerminal(os.Stdout))
	return nil
}

// RunExperiment loads the configuration and runs it. Nothing is built when
// the configuration is incomplete.
func RunExperiment(ctx context.Context, f *Flags, log *logrus.Logger) (*core.ExperimentResult, error) {
	doc, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Config, err)
	}
	log.WithFields(logrus.Fields{
		"config":      f.Config,
		"fingerprint": util.JsonHash(doc)[:12],
		"agents":      doc.Agents.Names(),
		"learn":       f.Learn,
	}).Info("starting experiment")
	if err := f.Record(doc.Agents.OutputCSV); err != nil {
		return nil, err
	}

	observers := core.Observers{}
	var m *metrics.PrometheusMetrics
	if f.MetricsFile != "" {
		m = metrics.NewPrometheusMetrics()
		observers = append(observers, m)
	}
	if f.Progress && util.IsTerminal(os.Stdout) {
		printer := util.NewTerminalPrinter(os.Stdout, 500*time.Millisecond)
		observers = append(observers, analysis.NewProgressObserver(printer))
		printer.Start(ctx)
		defer printer.Stop()
	}

	builder := environment.NewBuilder(doc.Agents.Environment, log)
	factory := agents.NewFactory(&doc.Agents, builder, &agents.Options{
		Observer: observers,
		Log:      log,
	})
	runner := core.NewRunner(&core.RunConfig{
		Learn:       f.Learn,
		OutputCSV:   doc.Agents.OutputCSV,
		OutputModel: doc.Agents.OutputModel,
		ModelExt:    ".json",
	}, log)

	result, err := runner.Run(ctx, &core.Experiment{
		Name:     util.Stem(f.Config),
		Agents:   factory,
		Reporter: analysis.NewPlotter(doc.Plotter, log),
	})
	if m != nil {
		if werr := m.WriteTo(f.MetricsFile); werr != nil {
			log.WithError(werr).Error("failed to write metrics")
		}
	}
	return result, err
}

// PrintSummary lists the artifacts of a run
func PrintSummary(w io.Writer, result *core.ExperimentResult, colors bool) {
	au := aurora.NewAurora(colors)
	for _, name := range result.Agents {
		fmt.Fprintf(w, "%s %s\n", au.Bold(au.Green(name)), result.OutputDirs[name])
		fmt.Fprintf(w, "  plot:  %s\n", au.Cyan(result.Plots[name]))
		if model, ok := result.Models[name]; ok {
			fmt.Fprintf(w, "  model: %s\n", au.Cyan(model))
		}
	}
	if plot, ok := result.Plots[core.LastEpisodesPlot]; ok {
		fmt.Fprintf(w, "%s %s\n", au.Bold(au.Green(core.LastEpisodesPlot)), au.Cyan(plot))
		for _, l := range result.LastEpisodes {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
}
