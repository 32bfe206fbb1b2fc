package analysis

import (
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
)

const (
	margin = 50.0
	legend = 14.0
)

var palette = []color.Color{
	color.RGBA{0x1f, 0x77, 0xb4, 0xff},
	color.RGBA{0xff, 0x7f, 0x0e, 0xff},
	color.RGBA{0x2c, 0xa0, 0x2c, 0xff},
	color.RGBA{0xd6, 0x27, 0x28, 0xff},
	color.RGBA{0x94, 0x67, 0xbd, 0xff},
	color.RGBA{0x8c, 0x56, 0x4b, 0xff},
	color.RGBA{0xe3, 0x77, 0xc2, 0xff},
	color.RGBA{0x7f, 0x7f, 0x7f, 0xff},
}

// renderPNG stacks one panel per metric in a single image
func (p *Plotter) renderPNG(path, name string, all []*series) error {
	w, h := p.config.Width, p.config.Height
	dc := gg.NewContext(w, h*len(p.config.Metrics))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, metric := range p.config.Metrics {
		top := float64(i * h)
		p.drawPanel(dc, top, name+": "+metric, metric, all)
	}
	return dc.SavePNG(path)
}

func (p *Plotter) drawPanel(dc *gg.Context, top float64, title, metric string, all []*series) {
	w, h := float64(p.config.Width), float64(p.config.Height)
	left, right := margin, w-margin/2
	bottom := top + h - margin
	upper := top + margin

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	smoothed := make([][]float64, len(all))
	for i, s := range all {
		smoothed[i] = movingAverage(s.values[metric], p.config.Window)
		for j, v := range smoothed[i] {
			minX, maxX = math.Min(minX, s.x[j]), math.Max(maxX, s.x[j])
			minY, maxY = math.Min(minY, v), math.Max(maxY, v)
		}
	}
	if math.IsInf(minX, 1) {
		minX, maxX, minY, maxY = 0, 1, 0, 1
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	px := func(x float64) float64 { return left + (x-minX)/(maxX-minX)*(right-left) }
	py := func(y float64) float64 { return bottom - (y-minY)/(maxY-minY)*(bottom-upper) }

	// axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(left, bottom, right, bottom)
	dc.DrawLine(left, bottom, left, upper)
	dc.Stroke()
	dc.DrawStringAnchored(title, w/2, top+margin/2, 0.5, 0.5)
	dc.DrawStringAnchored(format(minX), left, bottom+legend, 0.5, 0.5)
	dc.DrawStringAnchored(format(maxX), right, bottom+legend, 0.5, 0.5)
	dc.DrawStringAnchored(p.config.XAxis, (left+right)/2, bottom+legend, 0.5, 0.5)
	dc.DrawStringAnchored(format(maxY), left-4, upper, 1, 0.5)
	dc.DrawStringAnchored(format(minY), left-4, bottom, 1, 0.5)

	for i, s := range all {
		c := palette[i%len(palette)]
		dc.SetColor(c)
		dc.SetLineWidth(1.5)
		for j, v := range smoothed[i] {
			if j == 0 {
				dc.MoveTo(px(s.x[j]), py(v))
			} else {
				dc.LineTo(px(s.x[j]), py(v))
			}
		}
		dc.Stroke()
		dc.DrawString(s.label, right-150, upper+legend*float64(i+1))
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
