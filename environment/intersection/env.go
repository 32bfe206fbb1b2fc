package intersection

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/trafficcontrol/core"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrNoFlows       = errors.New("route file has no flows")
	ErrInvalidAction = errors.New("invalid action")
	ErrClosed        = errors.New("environment closed")
)

// Approaches of the intersection: north, east, south, west. Approach i is
// served by green phase i % GreenPhases.
const Approaches = 4

type Config struct {
	NumSeconds int
	MinGreen   int
	MaxGreen   int
	YellowTime int
	DeltaTime  int
	FixedGreen int
	Fixed      bool
	Seed       int64

	// read for arrival rates when Rates is empty
	RouteFile string
	// vehicles per second per approach
	Rates []float64

	GreenPhases int
	// vehicles a lane holds at density 1
	LaneCapacity int
	// seconds between departures from a queue on green
	Headway  int
	MaxSpeed float64
}

func DefaultConfig() *Config {
	return &Config{
		NumSeconds:   20000,
		MinGreen:     5,
		MaxGreen:     50,
		YellowTime:   2,
		DeltaTime:    5,
		FixedGreen:   30,
		Seed:         42,
		Rates:        []float64{0.1, 0.05, 0.1, 0.05},
		GreenPhases:  2,
		LaneCapacity: 20,
		Headway:      2,
		MaxSpeed:     13.89,
	}
}

type lane struct {
	// accumulated waiting time per vehicle, head first
	vehicles        []float64
	sinceDeparture  int
	arrivals        distuv.Poisson
	hasArrivalsRate bool
}

func (l *lane) halted(green bool) int {
	if len(l.vehicles) == 0 {
		return 0
	}
	if green {
		return len(l.vehicles) - 1
	}
	return len(l.vehicles)
}

// Env is a single four-approach intersection with Poisson arrivals and a
// queue per approach
type Env struct {
	config *Config
	signal *signal
	lanes  []*lane

	time        int
	lastWaiting float64
	trace       *core.Trace
	closed      bool

	log logrus.FieldLogger
}

var _ core.Environment = &Env{}

func NewEnv(c *Config, log logrus.FieldLogger) (*Env, error) {
	if c.GreenPhases <= 0 {
		c.GreenPhases = 2
	}
	if c.DeltaTime <= 0 {
		return nil, fmt.Errorf("delta time %d must be positive", c.DeltaTime)
	}
	if c.LaneCapacity <= 0 {
		c.LaneCapacity = 20
	}
	if c.Headway <= 0 {
		c.Headway = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	rates := c.Rates
	if len(rates) == 0 {
		var err error
		rates, err = ReadRates(c.RouteFile, Approaches, c.NumSeconds)
		if err != nil {
			return nil, err
		}
	}
	if len(rates) != Approaches {
		return nil, fmt.Errorf("%d arrival rates for %d approaches", len(rates), Approaches)
	}

	src := erand.NewSource(uint64(c.Seed))
	lanes := make([]*lane, Approaches)
	for i := range lanes {
		lanes[i] = &lane{
			vehicles:        make([]float64, 0),
			arrivals:        distuv.Poisson{Lambda: rates[i], Src: src},
			hasArrivalsRate: rates[i] > 0,
		}
	}

	e := &Env{
		config: c,
		signal: newSignal(c),
		lanes:  lanes,
		trace:  core.NewTrace(),
		log:    log,
	}
	return e, nil
}

func (e *Env) phaseOf(approach int) int {
	return approach % e.config.GreenPhases
}

// Reset starts a new episode, reopening a closed environment
func (e *Env) Reset() (core.Observation, error) {
	e.closed = false
	e.time = 0
	e.lastWaiting = 0
	for _, l := range e.lanes {
		l.vehicles = l.vehicles[:0]
		l.sinceDeparture = 0
	}
	e.signal.reset()
	e.trace.Reset()
	e.log.WithField("fixed", e.config.Fixed).Debug("intersection reset")
	return e.observation(), nil
}

func (e *Env) SimStep() error {
	if e.closed {
		return ErrClosed
	}
	e.time++
	for i, l := range e.lanes {
		if l.hasArrivalsRate {
			for k := int(l.arrivals.Rand()); k > 0; k-- {
				l.vehicles = append(l.vehicles, 0)
			}
		}
		green := e.signal.green(e.phaseOf(i))
		if green {
			l.sinceDeparture++
			if len(l.vehicles) > 0 && l.sinceDeparture >= e.config.Headway {
				l.vehicles = l.vehicles[1:]
				l.sinceDeparture = 0
			}
		} else {
			l.sinceDeparture = 0
		}
		start := 0
		if green {
			start = 1
		}
		for v := start; v < len(l.vehicles); v++ {
			l.vehicles[v]++
		}
	}
	e.signal.tick()
	return nil
}

func (e *Env) Step(action int) (core.Step, error) {
	if e.closed {
		return core.Step{}, ErrClosed
	}
	if e.config.Fixed {
		for i := 0; i < e.config.DeltaTime; i++ {
			if err := e.SimStep(); err != nil {
				return core.Step{}, err
			}
		}
		return e.Sample()
	}
	if action < 0 || action >= e.config.GreenPhases {
		return core.Step{}, fmt.Errorf("action %d of %d: %w", action, e.config.GreenPhases, ErrInvalidAction)
	}
	e.signal.setNextPhase(action, e.time)
	for !e.signal.timeToAct(e.time) {
		if err := e.SimStep(); err != nil {
			return core.Step{}, err
		}
	}
	return e.Sample()
}

func (e *Env) Sample() (core.Step, error) {
	if e.closed {
		return core.Step{}, ErrClosed
	}
	waiting := e.totalWaiting() / 100
	reward := e.lastWaiting - waiting
	e.lastWaiting = waiting

	info := e.info()
	e.trace.AddRow(info)
	return core.Step{
		Observation: e.observation(),
		Reward:      reward,
		Truncated:   e.time >= e.config.NumSeconds,
		Info:        info,
	}, nil
}

func (e *Env) totalWaiting() float64 {
	total := 0.0
	for _, l := range e.lanes {
		for _, w := range l.vehicles {
			total += w
		}
	}
	return total
}

func (e *Env) info() map[string]float64 {
	vehicles, stopped := 0, 0
	for i, l := range e.lanes {
		vehicles += len(l.vehicles)
		stopped += l.halted(e.signal.green(e.phaseOf(i)))
	}
	waiting := e.totalWaiting()
	meanWaiting, meanSpeed := 0.0, 0.0
	if vehicles > 0 {
		meanWaiting = waiting / float64(vehicles)
		meanSpeed = float64(vehicles-stopped) * e.config.MaxSpeed / float64(vehicles)
	}
	return map[string]float64{
		"step":                      float64(e.time),
		"system_total_stopped":      float64(stopped),
		"system_total_waiting_time": waiting,
		"system_mean_waiting_time":  meanWaiting,
		"system_mean_speed":         meanSpeed,
	}
}

func (e *Env) observation() core.Observation {
	phases := e.config.GreenPhases
	obs := make(core.Observation, 0, phases+1+2*len(e.lanes))
	green, minGreen := e.signal.observation()
	for p := 0; p < phases; p++ {
		if p == green {
			obs = append(obs, 1)
		} else {
			obs = append(obs, 0)
		}
	}
	obs = append(obs, minGreen)
	capacity := float64(e.config.LaneCapacity)
	for _, l := range e.lanes {
		obs = append(obs, clamp01(float64(len(l.vehicles))/capacity))
	}
	for i, l := range e.lanes {
		obs = append(obs, clamp01(float64(l.halted(e.signal.green(e.phaseOf(i))))/capacity))
	}
	return obs
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func (e *Env) Encode(obs core.Observation) string {
	return core.EncodeObservation(obs, e.config.GreenPhases)
}

func (e *Env) ObservationSpace() core.Space {
	dim := e.config.GreenPhases + 1 + 2*len(e.lanes)
	low := make([]float64, dim)
	high := make([]float64, dim)
	for i := range high {
		high[i] = 1
	}
	return core.NewBox(low, high)
}

func (e *Env) ActionSpace() core.Space {
	return core.NewDiscrete(e.config.GreenPhases)
}

func (e *Env) DeltaTime() int {
	return e.config.DeltaTime
}

func (e *Env) SaveCSV(outFile string, episode int) (string, error) {
	return e.trace.WriteCSV(outFile, episode)
}

func (e *Env) Close() error {
	e.closed = true
	return nil
}
