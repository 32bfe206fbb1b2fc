package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/zeu5/trafficcontrol/util"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrMissingColumn = errors.New("missing column")
)

// series holds the plotted columns of one metrics file
type series struct {
	label  string
	x      []float64
	values map[string][]float64
}

func (s *series) Len() int {
	return len(s.x)
}

// readSeries parses a metrics file. The x column and every metric must be
// present in the header.
func readSeries(path, xAxis string, metrics []string) (*series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty metrics file", path)
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	index := make(map[string]int)
	for i, h := range header {
		index[h] = i
	}
	columns := append([]string{xAxis}, metrics...)
	for _, c := range columns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%s: %s: %w", path, c, ErrMissingColumn)
		}
	}

	s := &series{
		label:  util.Stem(path),
		x:      make([]float64, 0),
		values: make(map[string][]float64),
	}
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, c := range columns {
			v, err := strconv.ParseFloat(record[index[c]], 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: column %s: %w", path, line, c, err)
			}
			if c == xAxis {
				s.x = append(s.x, v)
			} else {
				s.values[c] = append(s.values[c], v)
			}
		}
	}
	return s, nil
}

// movingAverage smooths values over a trailing window. Windows below 2
// return the values unchanged.
func movingAverage(values []float64, window int) []float64 {
	if window < 2 {
		return values
	}
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = stat.Mean(values[start:i+1], nil)
	}
	return out
}
