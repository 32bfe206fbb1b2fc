package policies

import (
	"errors"
	"fmt"

	"github.com/zeu5/trafficcontrol/util"
	erand "golang.org/x/exp/rand"
)

var (
	ErrShapeMismatch = errors.New("shape mismatch")
)

// QTable maps a discrete state key to one value per action
type QTable struct {
	table   map[string][]float64
	actions int
}

func NewQTable(actions int) *QTable {
	return &QTable{
		table:   make(map[string][]float64),
		actions: actions,
	}
}

func (q *QTable) Actions() int {
	return q.actions
}

func (q *QTable) GetAll(state string) ([]float64, bool) {
	values, ok := q.table[state]
	return values, ok
}

// Row returns the values of state, adding a zero row if the state is new
func (q *QTable) Row(state string) []float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make([]float64, q.actions)
	}
	return q.table[state]
}

func (q *QTable) Get(state string, action int) float64 {
	return q.Row(state)[action]
}

func (q *QTable) Set(state string, action int, val float64) {
	q.Row(state)[action] = val
}

func (q *QTable) Exists(state string) bool {
	_, ok := q.table[state]
	return ok
}

func (q *QTable) Size() int {
	return len(q.table)
}

// Max returns the first action with the highest value in state
func (q *QTable) Max(state string) (int, float64) {
	row := q.Row(state)
	maxAction := 0
	for a, val := range row {
		if val > row[maxAction] {
			maxAction = a
		}
	}
	return maxAction, row[maxAction]
}

// States returns the known state keys in sorted order
func (q *QTable) States() []string {
	return util.SortedKeys(q.table)
}

// Snapshot copies the table
func (q *QTable) Snapshot() map[string][]float64 {
	out := make(map[string][]float64, len(q.table))
	for s, row := range q.table {
		c := make([]float64, len(row))
		copy(c, row)
		out[s] = c
	}
	return out
}

// Restore replaces the table with a copy of entries. Every row must have
// one value per action.
func (q *QTable) Restore(entries map[string][]float64) error {
	table := make(map[string][]float64, len(entries))
	for s, row := range entries {
		if len(row) != q.actions {
			return fmt.Errorf("state %q has %d values, table has %d actions: %w", s, len(row), q.actions, ErrShapeMismatch)
		}
		c := make([]float64, len(row))
		copy(c, row)
		table[s] = c
	}
	q.table = table
	return nil
}

func newRand(seed int64) *erand.Rand {
	return erand.New(erand.NewSource(uint64(seed)))
}
