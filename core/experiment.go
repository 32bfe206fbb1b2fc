package core

// Reporter accumulates metrics files and renders comparison charts
type Reporter interface {
	// AddCSV adds a metrics file, or every metrics file of a directory, to
	// the pending set
	AddCSV(path string) error
	// BuildPlot renders the pending set into a chart named name and returns
	// the written file
	BuildPlot(name string) (string, error)
	Clear()
}

// AgentFactory instantiates the configured agents
type AgentFactory interface {
	// Instances returns the configured agent names in configuration order
	Instances() []string
	// NewAgent builds the agent called name, loading its persisted model
	// if one is configured
	NewAgent(name string) (Agent, error)
}

const LastEpisodesPlot = "last_episodes"

type RunConfig struct {
	Learn       bool
	OutputCSV   string
	OutputModel string
	// extension of persisted model files
	ModelExt string
}

func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Learn:       true,
		OutputCSV:   "outputs",
		OutputModel: "models",
		ModelExt:    ".json",
	}
}

// Experiment is a single configured invocation of the runner
type Experiment struct {
	Name     string
	Agents   AgentFactory
	Reporter Reporter
}

// ExperimentResult lists the artifacts of a completed experiment
type ExperimentResult struct {
	// agent names in run order
	Agents []string
	// agent name -> metrics directory
	OutputDirs map[string]string
	// agent name -> chart file, plus LastEpisodesPlot
	Plots map[string]string
	// newest metrics file of each agent, in run order
	LastEpisodes []string
	// agent name -> persisted model, only when learning
	Models map[string]string
}

func newExperimentResult() *ExperimentResult {
	return &ExperimentResult{
		Agents:       make([]string, 0),
		OutputDirs:   make(map[string]string),
		Plots:        make(map[string]string),
		LastEpisodes: make([]string, 0),
		Models:       make(map[string]string),
	}
}
