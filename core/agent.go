package core

import "context"

// Stage is the lifecycle stage of a control agent
type Stage int

const (
	// no environment handle
	StageUnbound Stage = iota
	// bound to a handle, algorithm built from configuration (or not built yet)
	StageBoundFresh
	// bound to a handle, algorithm restored from a persisted model
	StageBoundLoaded
)

func (s Stage) String() string {
	switch s {
	case StageUnbound:
		return "unbound"
	case StageBoundFresh:
		return "bound-fresh"
	case StageBoundLoaded:
		return "bound-loaded"
	}
	return "unknown"
}

// Agent drives a wrapped control strategy through the environment step loop
type Agent interface {
	// Init builds the wrapped algorithm from configuration and the current
	// environment spaces. Calling it again is a no-op.
	Init() error
	// Run executes the configured number of episodes, writing one metrics
	// file per episode under <outPath>/<name>, closes the environment and
	// returns that directory.
	Run(ctx context.Context, learn bool, outPath string) (string, error)
	// Save persists hyperparameters and learned state to path
	Save(path string) error
	// Load restores a persisted model and rebinds the agent to env. The
	// previous handle is dropped without being closed.
	Load(path string, env Environment) error
	// Close releases the environment of an agent that will not run
	Close() error
	Name() string
	Stage() Stage
}

// EpisodeResult summarizes a completed episode
type EpisodeResult struct {
	Agent   string
	Episode int
	Runs    int
	Steps   int
	Reward  float64
	Learn   bool
	CSV     string
	// last metrics row of the episode
	Info map[string]float64
}

// Observer is notified of agent progress
type Observer interface {
	AgentStarted(name string, runs int)
	StepTaken(name string, reward float64)
	EpisodeFinished(*EpisodeResult)
	AgentFinished(name string)
}

// Observers fans notifications out to all members
type Observers []Observer

var _ Observer = Observers{}

func (o Observers) AgentStarted(name string, runs int) {
	for _, ob := range o {
		ob.AgentStarted(name, runs)
	}
}

func (o Observers) StepTaken(name string, reward float64) {
	for _, ob := range o {
		ob.StepTaken(name, reward)
	}
}

func (o Observers) EpisodeFinished(r *EpisodeResult) {
	for _, ob := range o {
		ob.EpisodeFinished(r)
	}
}

func (o Observers) AgentFinished(name string) {
	for _, ob := range o {
		ob.AgentFinished(name)
	}
}
