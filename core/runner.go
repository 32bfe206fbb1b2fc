package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/trafficcontrol/util"
)

var (
	ErrNoEpisodes = errors.New("no episode metrics found")
)

// Runner instantiates the agents of an experiment, runs them one after the
// other, reports their metrics and persists their models.
type Runner struct {
	config *RunConfig
	log    logrus.FieldLogger
}

func NewRunner(config *RunConfig, log logrus.FieldLogger) *Runner {
	if config == nil {
		config = DefaultRunConfig()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		config: config,
		log:    log,
	}
}

// Run aborts on the first error. Agents are all constructed before the
// first one runs.
func (r *Runner) Run(ctx context.Context, e *Experiment) (*ExperimentResult, error) {
	result := newExperimentResult()

	agents := make([]Agent, 0)
	for _, name := range e.Agents.Instances() {
		agent, err := e.Agents.NewAgent(name)
		if err != nil {
			r.closeAgents(agents)
			return result, fmt.Errorf("creating agent %s: %w", name, err)
		}
		r.log.WithFields(logrus.Fields{
			"agent": name,
			"stage": agent.Stage().String(),
		}).Debug("agent created")
		agents = append(agents, agent)
	}

	for i, agent := range agents {
		select {
		case <-ctx.Done():
			r.closeAgents(agents[i:])
			return result, ctx.Err()
		default:
		}
		r.log.WithField("agent", agent.Name()).Info("running agent")
		out, err := agent.Run(ctx, r.config.Learn, r.config.OutputCSV)
		if err != nil {
			r.closeAgents(agents[i+1:])
			return result, fmt.Errorf("running agent %s: %w", agent.Name(), err)
		}
		result.Agents = append(result.Agents, agent.Name())
		result.OutputDirs[agent.Name()] = out
	}

	r.log.Info("plotting agents")
	if err := r.plotPerAgent(e.Reporter, result); err != nil {
		return result, err
	}
	if err := r.plotLastEpisodes(e.Reporter, result); err != nil {
		return result, err
	}

	if r.config.Learn {
		r.log.Info("saving models")
		if err := r.saveAgents(agents, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *Runner) plotPerAgent(reporter Reporter, result *ExperimentResult) error {
	for _, name := range result.Agents {
		if err := reporter.AddCSV(result.OutputDirs[name]); err != nil {
			return fmt.Errorf("adding metrics of %s: %w", name, err)
		}
		plot, err := reporter.BuildPlot(name)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", name, err)
		}
		reporter.Clear()
		result.Plots[name] = plot
	}
	return nil
}

func (r *Runner) plotLastEpisodes(reporter Reporter, result *ExperimentResult) error {
	for _, name := range result.Agents {
		last, err := LastEpisode(result.OutputDirs[name])
		if err != nil {
			return fmt.Errorf("last episode of %s: %w", name, err)
		}
		if err := reporter.AddCSV(last); err != nil {
			return fmt.Errorf("adding metrics of %s: %w", name, err)
		}
		result.LastEpisodes = append(result.LastEpisodes, last)
	}
	plot, err := reporter.BuildPlot(LastEpisodesPlot)
	if err != nil {
		return fmt.Errorf("plotting %s: %w", LastEpisodesPlot, err)
	}
	reporter.Clear()
	result.Plots[LastEpisodesPlot] = plot
	return nil
}

func (r *Runner) saveAgents(agents []Agent, result *ExperimentResult) error {
	if err := os.MkdirAll(r.config.OutputModel, 0755); err != nil {
		return err
	}
	for _, agent := range agents {
		path := filepath.Join(r.config.OutputModel, agent.Name()+r.config.ModelExt)
		if err := agent.Save(path); err != nil {
			return fmt.Errorf("saving agent %s: %w", agent.Name(), err)
		}
		// agents without learnable state write nothing
		if util.Exists(path) {
			result.Models[agent.Name()] = path
		}
	}
	return nil
}

// closeAgents releases agents that were built but will not run
func (r *Runner) closeAgents(agents []Agent) {
	for _, agent := range agents {
		if err := agent.Close(); err != nil {
			r.log.WithError(err).WithField("agent", agent.Name()).Warn("closing agent")
		}
	}
}

// LastEpisode returns the newest metrics file of an agent directory. File
// names are compared with numeric-aware ordering so that ep10 follows ep9.
func LastEpisode(dir string) (string, error) {
	files, err := util.ListFiles(dir, ".csv")
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%s: %w", dir, ErrNoEpisodes)
	}
	return files[len(files)-1], nil
}
