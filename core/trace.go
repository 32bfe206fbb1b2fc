package core

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/zeu5/trafficcontrol/util"
)

// Columns of the per-episode metrics file, in order
var MetricColumns = []string{
	"step",
	"system_total_stopped",
	"system_total_waiting_time",
	"system_mean_waiting_time",
	"system_mean_speed",
}

// Trace accumulates the metrics rows of one episode
type Trace struct {
	mtx  *sync.Mutex
	rows []map[string]float64
}

func NewTrace() *Trace {
	return &Trace{
		rows: make([]map[string]float64, 0),
		mtx:  &sync.Mutex{},
	}
}

func (t *Trace) AddRow(info map[string]float64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.rows = append(t.rows, util.CopyFloatMap(info))
}

func (t *Trace) Reset() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.rows = make([]map[string]float64, 0)
}

// EpisodeFile is the metrics file name for an episode of outFile
func EpisodeFile(outFile string, episode int) string {
	return fmt.Sprintf("%s_ep%d.csv", outFile, episode)
}

// WriteCSV writes the trace to EpisodeFile(outFile, episode), creating the
// parent directory if needed.
func (t *Trace) WriteCSV(outFile string, episode int) (string, error) {
	path := EpisodeFile(outFile, episode)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(MetricColumns); err != nil {
		return "", err
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()
	record := make([]string, len(MetricColumns))
	for _, row := range t.rows {
		for i, col := range MetricColumns {
			record[i] = strconv.FormatFloat(row[col], 'f', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}
