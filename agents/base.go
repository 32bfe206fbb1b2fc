package agents

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/util"
)

var (
	ErrUnbound           = errors.New("agent has no environment")
	ErrIncompatibleModel = errors.New("incompatible model")
)

// episodeStats is what an episode loop reports back to the run loop
type episodeStats struct {
	steps  int
	reward float64
	info   map[string]float64
}

// base holds what all control agents share: identity, configuration and
// the exclusively owned environment handle
type base struct {
	name     string
	config   *config.Instance
	env      core.Environment
	stage    core.Stage
	seed     int64
	observer core.Observer
	log      logrus.FieldLogger
}

func newBase(inst *config.Instance, env core.Environment, opts *Options) base {
	opts = opts.withDefaults()
	b := base{
		name:     inst.Name,
		config:   inst,
		env:      env,
		stage:    core.StageUnbound,
		seed:     inst.SeedOr(opts.Seed),
		observer: opts.Observer,
		log:      opts.Log.WithField("agent", inst.Name),
	}
	if env != nil {
		b.stage = core.StageBoundFresh
	}
	return b
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Stage() core.Stage {
	return b.stage
}

// Environment is the currently bound handle, nil when unbound
func (b *base) Environment() core.Environment {
	return b.env
}

// rebind drops the current handle without closing it
func (b *base) rebind(env core.Environment) {
	b.env = env
	b.stage = core.StageBoundLoaded
}

// run executes the configured episodes, writing each episode's metrics to
// <outPath>/<name>/<name>_ep<run>.csv, then closes the environment
func (b *base) run(ctx context.Context, learn bool, outPath string, episode func(run int) (*episodeStats, error)) (string, error) {
	if b.env == nil {
		return "", ErrUnbound
	}
	out := filepath.Join(outPath, b.name)
	outFile := filepath.Join(out, b.name)
	runs := b.config.RunsOr(1)
	// episodes of an earlier run with more Runs must not outlive this one
	if err := util.RemoveFiles(out, ".csv"); err != nil {
		b.env.Close()
		return "", fmt.Errorf("clearing %s: %w", out, err)
	}

	b.observer.AgentStarted(b.name, runs)
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			b.env.Close()
			return "", ctx.Err()
		default:
		}
		stats, err := episode(run)
		if err != nil {
			b.env.Close()
			return "", fmt.Errorf("episode %d: %w", run, err)
		}
		csv, err := b.env.SaveCSV(outFile, run)
		if err != nil {
			b.env.Close()
			return "", fmt.Errorf("saving metrics of episode %d: %w", run, err)
		}
		b.log.WithFields(logrus.Fields{
			"episode": run,
			"steps":   stats.steps,
			"reward":  stats.reward,
		}).Debug("episode finished")
		b.observer.EpisodeFinished(&core.EpisodeResult{
			Agent:   b.name,
			Episode: run,
			Runs:    runs,
			Steps:   stats.steps,
			Reward:  stats.reward,
			Learn:   learn,
			CSV:     csv,
			Info:    stats.info,
		})
	}
	if err := b.env.Close(); err != nil {
		return "", err
	}
	b.observer.AgentFinished(b.name)
	return out, nil
}

// Close releases the bound environment of an agent that will not run
func (b *base) Close() error {
	if b.env == nil {
		return nil
	}
	err := b.env.Close()
	b.env = nil
	b.stage = core.StageUnbound
	return err
}

func (b *base) record(stats *episodeStats, step core.Step) {
	stats.steps++
	stats.reward += step.Reward
	stats.info = step.Info
	b.observer.StepTaken(b.name, step.Reward)
}

// Options shared by all agents built by a factory
type Options struct {
	// default exploration seed when the instance sets none
	Seed     int64
	Observer core.Observer
	Log      logrus.FieldLogger
}

func (o *Options) withDefaults() *Options {
	out := &Options{}
	if o != nil {
		*out = *o
	}
	if out.Observer == nil {
		out.Observer = core.Observers{}
	}
	if out.Log == nil {
		out.Log = logrus.StandardLogger()
	}
	return out
}
