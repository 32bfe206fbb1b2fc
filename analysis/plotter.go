package analysis

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/util"
)

var (
	ErrNothingToPlot = errors.New("no metrics files to plot")
)

const (
	FormatHTML = "html"
	FormatPNG  = "png"
)

// Plotter accumulates metrics files and renders them as comparison charts
type Plotter struct {
	config  config.PlotterSettings
	pending []string
	log     logrus.FieldLogger
}

var _ core.Reporter = &Plotter{}

func NewPlotter(settings config.PlotterSettings, log logrus.FieldLogger) *Plotter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Plotter{
		pending: make([]string, 0),
		log:     log,
	}
	p.SetConfigs(settings)
	return p
}

// SetConfigs replaces the rendering settings, filling unset fields with
// defaults
func (p *Plotter) SetConfigs(settings config.PlotterSettings) {
	def := config.DefaultPlotterSettings()
	if settings.OutputDir == "" {
		settings.OutputDir = def.OutputDir
	}
	if settings.Format == "" {
		settings.Format = def.Format
	}
	if settings.XAxis == "" {
		settings.XAxis = def.XAxis
	}
	if len(settings.Metrics) == 0 {
		settings.Metrics = def.Metrics
	}
	if settings.Window <= 0 {
		settings.Window = def.Window
	}
	if settings.Width <= 0 {
		settings.Width = def.Width
	}
	if settings.Height <= 0 {
		settings.Height = def.Height
	}
	if settings.Theme == "" {
		settings.Theme = def.Theme
	}
	p.config = settings
}

func (p *Plotter) Config() config.PlotterSettings {
	return p.config
}

// AddCSV adds a metrics file, or every .csv file of a directory in natural
// order. Files are parsed when the plot is built.
func (p *Plotter) AddCSV(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		p.pending = append(p.pending, path)
		return nil
	}
	files, err := util.ListFiles(path, ".csv")
	if err != nil {
		return err
	}
	p.pending = append(p.pending, files...)
	return nil
}

func (p *Plotter) Pending() []string {
	out := make([]string, len(p.pending))
	copy(out, p.pending)
	return out
}

// BuildPlot renders the pending files to <Output_dir>/<name>.<format> and
// returns that path. The pending set is kept.
func (p *Plotter) BuildPlot(name string) (string, error) {
	if len(p.pending) == 0 {
		return "", fmt.Errorf("%s: %w", name, ErrNothingToPlot)
	}
	all := make([]*series, 0, len(p.pending))
	for _, file := range p.pending {
		s, err := readSeries(file, p.config.XAxis, p.config.Metrics)
		if err != nil {
			return "", err
		}
		all = append(all, s)
	}

	if err := os.MkdirAll(p.config.OutputDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(p.config.OutputDir, name+"."+p.config.Format)
	var err error
	switch p.config.Format {
	case FormatHTML:
		err = p.renderHTML(path, name, all)
	case FormatPNG:
		err = p.renderPNG(path, name, all)
	default:
		err = fmt.Errorf("%w: plot format %q", config.ErrInvalid, p.config.Format)
	}
	if err != nil {
		return "", err
	}
	p.log.WithFields(logrus.Fields{
		"plot":  path,
		"files": len(all),
	}).Debug("plot written")
	return path, nil
}

func (p *Plotter) Clear() {
	p.pending = make([]string, 0)
}
