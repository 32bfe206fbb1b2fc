package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeu5/trafficcontrol/core"
)

func TestPrometheusMetricsTextfile(t *testing.T) {
	m := NewPrometheusMetrics()
	m.AgentStarted("A", 2)
	for i := 0; i < 3; i++ {
		m.StepTaken("A", -1)
	}
	m.EpisodeFinished(&core.EpisodeResult{Agent: "A", Episode: 0, Reward: -3, Learn: true})
	m.EpisodeFinished(&core.EpisodeResult{Agent: "A", Episode: 1, Reward: -2.5, Learn: true})
	m.AgentFinished("A")

	path := filepath.Join(t.TempDir(), "run.prom")
	if err := m.WriteTo(path); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(bs)
	for _, want := range []string{
		`trafficcontrol_episodes_total{agent="A",learn="true"} 2`,
		`trafficcontrol_steps_total{agent="A"} 3`,
		`trafficcontrol_episode_reward{agent="A"} -2.5`,
		`trafficcontrol_episode_duration_seconds_count{agent="A"} 2`,
		`trafficcontrol_running_agents 0`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in\n%s", want, text)
		}
	}
}

func TestPrometheusMetricsAreIsolated(t *testing.T) {
	a, b := NewPrometheusMetrics(), NewPrometheusMetrics()
	a.StepTaken("A", 1)
	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() == "trafficcontrol_steps_total" && len(f.GetMetric()) != 0 {
			t.Fatal("metrics leaked between registries")
		}
	}
}
