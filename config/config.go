package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingKey = errors.New("missing configuration key")
	ErrInvalid    = errors.New("invalid configuration")
)

const (
	PlotterSettingsKey = "Plotter_settings"
	AgentSettingsKey   = "Agent_settings"
	EnvironmentKey     = "Environment"
	InstancesKey       = "Instances"
)

// Document is a parsed experiment configuration
type Document struct {
	Plotter PlotterSettings
	Agents  AgentSettings
}

// PlotterSettings configures chart rendering
type PlotterSettings struct {
	OutputDir string   `yaml:"Output_dir"`
	Format    string   `yaml:"Format"`
	XAxis     string   `yaml:"X_axis"`
	Metrics   []string `yaml:"Metrics"`
	// moving average window, 1 plots raw values
	Window int    `yaml:"Window"`
	Width  int    `yaml:"Width"`
	Height int    `yaml:"Height"`
	Theme  string `yaml:"Theme"`
}

func DefaultPlotterSettings() PlotterSettings {
	return PlotterSettings{
		OutputDir: "plots",
		Format:    "html",
		XAxis:     "step",
		Metrics: []string{
			"system_total_stopped",
			"system_total_waiting_time",
			"system_mean_waiting_time",
			"system_mean_speed",
		},
		Window: 1,
		Width:  900,
		Height: 500,
		Theme:  "shine",
	}
}

// Environment holds the simulation parameters shared by all agents
type Environment struct {
	Backend    string `yaml:"Backend"`
	BridgeAddr string `yaml:"Bridge_addr"`
	NetFile    string `yaml:"Net_file"`
	RouteFile  string `yaml:"Route_file"`
	Gui        bool   `yaml:"Gui"`
	NumSeconds int    `yaml:"Num_seconds"`
	MinGreen   int    `yaml:"Min_green"`
	MaxGreen   int    `yaml:"Max_green"`
	YellowTime int    `yaml:"Yellow_time"`
	DeltaTime  int    `yaml:"Delta_time"`
	// green duration of each phase under fixed-cycle control
	FixedGreen int   `yaml:"Fixed_green"`
	Seed       int64 `yaml:"Seed"`
}

func DefaultEnvironment() Environment {
	return Environment{
		Backend:    "intersection",
		NetFile:    "interseccion/k23c16.net.xml",
		RouteFile:  "interseccion/trafic.rou.xml",
		NumSeconds: 20000,
		MinGreen:   5,
		MaxGreen:   50,
		YellowTime: 2,
		DeltaTime:  5,
		FixedGreen: 30,
		Seed:       42,
	}
}

type AgentSettings struct {
	Environment Environment
	// in configuration order
	Instances   []*Instance
	OutputCSV   string
	OutputModel string
}

func (a *AgentSettings) Instance(name string) (*Instance, bool) {
	for _, i := range a.Instances {
		if i.Name == name {
			return i, true
		}
	}
	return nil, false
}

func (a *AgentSettings) Names() []string {
	names := make([]string, len(a.Instances))
	for i, inst := range a.Instances {
		names[i] = inst.Name
	}
	return names
}

// outputsDoc holds the scalar keys of Agent_settings. Environment and
// Instances are read from the node directly to keep instance order.
type outputsDoc struct {
	OutputCSV   string `yaml:"Output_csv"`
	OutputModel string `yaml:"Output_model"`
}

// Load reads a YAML (or JSON) experiment document from path
func Load(path string) (*Document, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse checks that both top level sections exist before decoding
// anything else
func Parse(bs []byte) (*Document, error) {
	root := &yaml.Node{}
	if err := yaml.Unmarshal(bs, root); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	top := root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document is not a mapping", ErrInvalid)
	}

	plotterNode := lookup(top, PlotterSettingsKey)
	if plotterNode == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, PlotterSettingsKey)
	}
	agentsNode := lookup(top, AgentSettingsKey)
	if agentsNode == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, AgentSettingsKey)
	}

	doc := &Document{Plotter: DefaultPlotterSettings()}
	if err := plotterNode.Decode(&doc.Plotter); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalid, PlotterSettingsKey, err)
	}

	settings, err := parseAgentSettings(agentsNode)
	if err != nil {
		return nil, err
	}
	doc.Agents = *settings
	return doc, nil
}

func parseAgentSettings(node *yaml.Node) (*AgentSettings, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s is not a mapping", ErrInvalid, AgentSettingsKey)
	}
	raw := outputsDoc{}
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalid, AgentSettingsKey, err)
	}
	settings := &AgentSettings{
		Environment: DefaultEnvironment(),
		Instances:   make([]*Instance, 0),
		OutputCSV:   raw.OutputCSV,
		OutputModel: raw.OutputModel,
	}
	if settings.OutputCSV == "" {
		settings.OutputCSV = "outputs"
	}
	if settings.OutputModel == "" {
		settings.OutputModel = "models"
	}
	envNode := lookup(node, EnvironmentKey)
	if envNode == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingKey, AgentSettingsKey, EnvironmentKey)
	}
	if err := envNode.Decode(&settings.Environment); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalid, EnvironmentKey, err)
	}
	instNode := lookup(node, InstancesKey)
	if instNode == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingKey, AgentSettingsKey, InstancesKey)
	}
	if instNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s is not a mapping", ErrInvalid, InstancesKey)
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(instNode.Content); i += 2 {
		name := instNode.Content[i].Value
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate instance %s", ErrInvalid, name)
		}
		seen[name] = true
		inst := &Instance{}
		if err := instNode.Content[i+1].Decode(inst); err != nil {
			return nil, fmt.Errorf("%w: instance %s: %s", ErrInvalid, name, err)
		}
		inst.Name = name
		settings.Instances = append(settings.Instances, inst)
	}
	return settings, nil
}

// Validate checks every instance. Agent construction performs the same
// check per instance.
func (d *Document) Validate() error {
	switch d.Plotter.Format {
	case "html", "png":
	default:
		return fmt.Errorf("%w: unknown plot format %q", ErrInvalid, d.Plotter.Format)
	}
	for _, inst := range d.Agents.Instances {
		if err := inst.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
