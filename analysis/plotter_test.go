package analysis

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/util"
)

func writeEpisode(t *testing.T, outFile string, episode, steps int) string {
	t.Helper()
	trace := core.NewTrace()
	for i := 1; i <= steps; i++ {
		trace.AddRow(map[string]float64{
			"step":                      float64(i * 5),
			"system_total_stopped":      float64(i % 3),
			"system_total_waiting_time": float64(i * 2),
			"system_mean_waiting_time":  float64(i) / 2,
			"system_mean_speed":         1.5,
		})
	}
	path, err := trace.WriteCSV(outFile, episode)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestPlotter(t *testing.T, format string) *Plotter {
	settings := config.DefaultPlotterSettings()
	settings.OutputDir = filepath.Join(t.TempDir(), "plots")
	settings.Format = format
	settings.Width = 300
	settings.Height = 200
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	return NewPlotter(settings, l)
}

func TestAddCSVExpandsDirectoriesInNaturalOrder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "A")
	for _, ep := range []int{10, 2, 9} {
		writeEpisode(t, filepath.Join(dir, "A"), ep, 3)
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	p := newTestPlotter(t, FormatHTML)
	if err := p.AddCSV(dir); err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "A_ep2.csv"),
		filepath.Join(dir, "A_ep9.csv"),
		filepath.Join(dir, "A_ep10.csv"),
	}
	if !reflect.DeepEqual(p.Pending(), want) {
		t.Fatalf("pending %v, want %v", p.Pending(), want)
	}

	if err := p.AddCSV(want[0]); err != nil {
		t.Fatal(err)
	}
	if len(p.Pending()) != 4 {
		t.Fatalf("single file not added: %v", p.Pending())
	}
	p.Clear()
	if len(p.Pending()) != 0 {
		t.Fatal("clear kept pending files")
	}
	if err := p.AddCSV(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing path error, got %v", err)
	}
}

func TestBuildPlotHTML(t *testing.T) {
	dir := t.TempDir()
	a := writeEpisode(t, filepath.Join(dir, "A"), 0, 4)
	b := writeEpisode(t, filepath.Join(dir, "B"), 0, 6)

	p := newTestPlotter(t, FormatHTML)
	p.AddCSV(a)
	p.AddCSV(b)
	path, err := p.BuildPlot("last_episodes")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(p.Config().OutputDir, "last_episodes.html") {
		t.Fatalf("plot path %s", path)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(bs)
	for _, s := range []string{"A_ep0", "B_ep0", "system_mean_speed"} {
		if !strings.Contains(page, s) {
			t.Fatalf("page does not mention %s", s)
		}
	}
	// pending set survives a build
	if len(p.Pending()) != 2 {
		t.Fatalf("pending %v", p.Pending())
	}
}

func TestBuildPlotPNG(t *testing.T) {
	dir := t.TempDir()
	p := newTestPlotter(t, FormatPNG)
	p.AddCSV(writeEpisode(t, filepath.Join(dir, "A"), 0, 5))
	path, err := p.BuildPlot("A")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".png" || !util.Exists(path) {
		t.Fatalf("no png written at %s", path)
	}
	bs, _ := os.ReadFile(path)
	if !bytes.HasPrefix(bs, []byte("\x89PNG")) {
		t.Fatal("not a png file")
	}
}

func TestBuildPlotErrors(t *testing.T) {
	p := newTestPlotter(t, FormatHTML)
	if _, err := p.BuildPlot("empty"); !errors.Is(err, ErrNothingToPlot) {
		t.Fatalf("expected nothing to plot, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.csv")
	os.WriteFile(bad, []byte("step,other\n5,1\n"), 0644)
	p.AddCSV(bad)
	if _, err := p.BuildPlot("bad"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected missing column, got %v", err)
	}
}

func TestSetConfigsFillsDefaults(t *testing.T) {
	p := NewPlotter(config.PlotterSettings{Format: FormatPNG}, nil)
	c := p.Config()
	def := config.DefaultPlotterSettings()
	if c.Format != FormatPNG || c.OutputDir != def.OutputDir || c.Window != 1 || len(c.Metrics) != len(def.Metrics) {
		t.Fatalf("settings %+v", c)
	}
}

func TestMovingAverage(t *testing.T) {
	cases := []struct {
		values []float64
		window int
		want   []float64
	}{
		{[]float64{1, 2, 3}, 1, []float64{1, 2, 3}},
		{[]float64{1, 3, 5, 7}, 2, []float64{1, 2, 4, 6}},
		{[]float64{3, 3, 6}, 3, []float64{3, 3, 4}},
		{[]float64{}, 4, []float64{}},
	}
	for _, c := range cases {
		got := movingAverage(c.values, c.window)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("movingAverage(%v, %d) = %v, want %v", c.values, c.window, got, c.want)
		}
	}
}
