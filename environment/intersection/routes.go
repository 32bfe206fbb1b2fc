package intersection

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
)

type routesDoc struct {
	Flows []flowDoc `xml:"flow"`
}

type flowDoc struct {
	ID          string `xml:"id,attr"`
	From        string `xml:"from,attr"`
	Route       string `xml:"route,attr"`
	Begin       string `xml:"begin,attr"`
	End         string `xml:"end,attr"`
	VehsPerHour string `xml:"vehsPerHour,attr"`
	Period      string `xml:"period,attr"`
	Probability string `xml:"probability,attr"`
	Number      string `xml:"number,attr"`
}

// rate is the arrival rate of a flow in vehicles per second
func (f flowDoc) rate(horizon int) (float64, error) {
	switch {
	case f.VehsPerHour != "":
		v, err := strconv.ParseFloat(f.VehsPerHour, 64)
		return v / 3600, err
	case f.Period != "":
		v, err := strconv.ParseFloat(f.Period, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("bad period %q", f.Period)
		}
		return 1 / v, nil
	case f.Probability != "":
		return strconv.ParseFloat(f.Probability, 64)
	case f.Number != "":
		n, err := strconv.ParseFloat(f.Number, 64)
		if err != nil {
			return 0, err
		}
		begin, end := 0.0, float64(horizon)
		if f.Begin != "" {
			if begin, err = strconv.ParseFloat(f.Begin, 64); err != nil {
				return 0, err
			}
		}
		if f.End != "" {
			if end, err = strconv.ParseFloat(f.End, 64); err != nil {
				return 0, err
			}
		}
		if end <= begin {
			return 0, fmt.Errorf("empty interval [%s, %s]", f.Begin, f.End)
		}
		return n / (end - begin), nil
	}
	return 0, nil
}

// ReadRates reads the <flow> elements of a route file and returns one
// arrival rate per approach. Distinct origin edges (or routes) are assigned
// to approaches in order of first appearance.
func ReadRates(path string, approaches, horizon int) ([]float64, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := routesDoc{}
	if err := xml.Unmarshal(bs, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rates := make([]float64, approaches)
	origins := make(map[string]int)
	for _, f := range doc.Flows {
		origin := f.From
		if origin == "" {
			origin = f.Route
		}
		idx, ok := origins[origin]
		if !ok {
			idx = len(origins) % approaches
			origins[origin] = idx
		}
		r, err := f.rate(horizon)
		if err != nil {
			return nil, fmt.Errorf("flow %s in %s: %w", f.ID, path, err)
		}
		rates[idx] += r
	}
	if len(doc.Flows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFlows)
	}
	return rates, nil
}
