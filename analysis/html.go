package analysis

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// renderHTML writes one line chart per metric on a single page
func (p *Plotter) renderHTML(path, name string, all []*series) error {
	page := components.NewPage()

	for _, metric := range p.config.Metrics {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    metric,
				Subtitle: name,
			}),
			charts.WithInitializationOpts(opts.Initialization{
				Theme:  p.config.Theme,
				Width:  fmt.Sprintf("%dpx", p.config.Width),
				Height: fmt.Sprintf("%dpx", p.config.Height),
			}),
			charts.WithXAxisOpts(opts.XAxis{Name: p.config.XAxis}),
			charts.WithYAxisOpts(opts.YAxis{Name: metric}),
			charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		)

		line.SetXAxis(xLabels(all))
		for _, s := range all {
			values := movingAverage(s.values[metric], p.config.Window)
			items := make([]opts.LineData, 0, len(values))
			for _, v := range values {
				items = append(items, opts.LineData{Value: v})
			}
			line.AddSeries(s.label, items)
		}
		page.AddCharts(line)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

// xLabels are the x values of the longest series
func xLabels(all []*series) []string {
	longest := all[0]
	for _, s := range all[1:] {
		if s.Len() > longest.Len() {
			longest = s
		}
	}
	labels := make([]string, longest.Len())
	for i, x := range longest.x {
		labels[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return labels
}
