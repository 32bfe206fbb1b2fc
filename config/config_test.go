package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testDocument = `
Plotter_settings:
  Output_dir: plots
  Format: png
  Metrics: [system_mean_speed]
Agent_settings:
  Environment:
    Num_seconds: 600
    Delta_time: 5
    Min_green: 5
    Max_green: 50
    Yellow_time: 2
    Gui: false
  Instances:
    zeta: {Agent_type: FIXED, Runs: 2}
    Alpha_QL:
      Agent_type: QL
      Runs: 3
      Alpha: 0.1
      Gamma: 0.99
      Init_epsilon: 0.05
      Min_epsilon: 0.005
      Decay: 1.0
    beta:
      Agent_type: SARSA
      Runs: 1
      Alpha: 0.0001
      Gamma: 0.99
      Epsilon: 0.05
      FourierOrder: 7
      Lambda: 0.9
      Model: models/beta.json
  Output_csv: outputs
  Output_model: models
`

func TestParseKeepsInstanceOrderAndCase(t *testing.T) {
	doc, err := Parse([]byte(testDocument))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"zeta", "Alpha_QL", "beta"}
	if got := doc.Agents.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	if err := doc.Validate(); err != nil {
		t.Fatal(err)
	}

	ql, ok := doc.Agents.Instance("Alpha_QL")
	if !ok {
		t.Fatal("instance Alpha_QL not found")
	}
	if *ql.Runs != 3 || *ql.Alpha != 0.1 || *ql.Decay != 1.0 {
		t.Errorf("unexpected QL values %+v", ql)
	}
	beta, _ := doc.Agents.Instance("beta")
	if beta.Model != "models/beta.json" || *beta.FourierOrder != 7 {
		t.Errorf("unexpected SARSA values %+v", beta)
	}

	if doc.Agents.Environment.NumSeconds != 600 {
		t.Errorf("Num_seconds = %d", doc.Agents.Environment.NumSeconds)
	}
	// defaults survive for keys the document leaves out
	if doc.Agents.Environment.Backend != "intersection" {
		t.Errorf("Backend = %q", doc.Agents.Environment.Backend)
	}
	if doc.Plotter.Format != "png" || doc.Plotter.XAxis != "step" {
		t.Errorf("unexpected plotter settings %+v", doc.Plotter)
	}
	if !reflect.DeepEqual(doc.Plotter.Metrics, []string{"system_mean_speed"}) {
		t.Errorf("metrics = %v", doc.Plotter.Metrics)
	}
}

func TestParseMissingTopLevelKeys(t *testing.T) {
	cases := map[string]string{
		"no agent settings":   "Plotter_settings: {Format: html}\n",
		"no plotter settings": "Agent_settings: {Instances: {}}\n",
		"no instances":        "Plotter_settings: {}\nAgent_settings: {Environment: {}}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, ErrMissingKey) {
				t.Fatalf("expected ErrMissingKey, got %v", err)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	doc, err := Parse([]byte(`{"Plotter_settings": {}, "Agent_settings": {"Environment": {}, "Instances": {"B": {"Agent_type": "FIXED", "Runs": 1}, "A": {"Agent_type": "FIXED", "Runs": 1}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Agents.Names(); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Fatalf("names = %v", got)
	}
}

func TestInstanceValidate(t *testing.T) {
	one := 1
	zero := 0
	v := 0.5
	cases := []struct {
		name string
		inst Instance
		err  error
	}{
		{"fixed ok", Instance{AgentType: TypeFixed, Runs: &one}, nil},
		{"missing runs", Instance{AgentType: TypeFixed}, ErrMissingKey},
		{"zero runs", Instance{AgentType: TypeFixed, Runs: &zero}, ErrInvalid},
		{"unknown type", Instance{AgentType: "DQN", Runs: &one}, ErrInvalid},
		{"no type", Instance{Runs: &one}, ErrMissingKey},
		{"ql missing decay", Instance{AgentType: TypeQL, Runs: &one, Alpha: &v, Gamma: &v, InitEpsilon: &v, MinEpsilon: &v}, ErrMissingKey},
		{"sarsa missing lambda", Instance{AgentType: TypeSarsa, Runs: &one, Alpha: &v, Gamma: &v, Epsilon: &v, FourierOrder: &one}, ErrMissingKey},
		{"sarsa ok", Instance{AgentType: TypeSarsa, Runs: &one, Alpha: &v, Gamma: &v, Epsilon: &v, FourierOrder: &one, Lambda: &v}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.inst.Validate()
			if c.err == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if c.err != nil && !errors.Is(err, c.err) {
				t.Fatalf("expected %v, got %v", c.err, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(testDocument), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Agents.Instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(doc.Agents.Instances))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestParseAgentSettingsSections(t *testing.T) {
	doc, err := Parse([]byte(`
Plotter_settings: {}
Agent_settings:
  Output_csv: runs/csv
  Environment:
    Backend: bridge
    Bridge_addr: 127.0.0.1:9000
    Num_seconds: 60
    Delta_time: 10
    Seed: 3
  Instances:
    only: {Agent_type: FIXED, Runs: 1}
`))
	if err != nil {
		t.Fatal(err)
	}
	env := doc.Agents.Environment
	if env.NumSeconds != 60 || env.DeltaTime != 10 || env.Seed != 3 {
		t.Fatalf("environment values lost: %+v", env)
	}
	if env.Backend != "bridge" || env.BridgeAddr != "127.0.0.1:9000" {
		t.Fatalf("backend = %q at %q", env.Backend, env.BridgeAddr)
	}
	if env.MinGreen != DefaultEnvironment().MinGreen {
		t.Fatalf("Min_green default lost: %d", env.MinGreen)
	}
	if doc.Agents.OutputCSV != "runs/csv" || doc.Agents.OutputModel != "models" {
		t.Fatalf("outputs %q %q", doc.Agents.OutputCSV, doc.Agents.OutputModel)
	}
	if got := doc.Agents.Names(); !reflect.DeepEqual(got, []string{"only"}) {
		t.Fatalf("names = %v", got)
	}
}

func TestParseRejectsNonMappingSections(t *testing.T) {
	cases := map[string]string{
		"instances list":       "Plotter_settings: {}\nAgent_settings: {Environment: {}, Instances: [a, b]}\n",
		"agent settings value": "Plotter_settings: {}\nAgent_settings: 3\n",
		"duplicate instance":   "Plotter_settings: {}\nAgent_settings: {Environment: {}, Instances: {a: {Runs: 1}, a: {Runs: 2}}}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
