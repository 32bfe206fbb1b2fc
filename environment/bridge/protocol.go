package bridge

import "errors"

const (
	EndpointStart   = "start"
	EndpointReset   = "reset"
	EndpointStep    = "step"
	EndpointSimStep = "sim_step"
	EndpointSample  = "sample"
	EndpointClose   = "close"
)

var ErrRemote = errors.New("bridge error")

type Request struct {
	Endpoint string      `msgpack:"endpoint"`
	Params   interface{} `msgpack:"params,omitempty"`
}

// StartParams are passed through to the simulator environment, which is
// always created in single-agent mode
type StartParams struct {
	NetFile     string `msgpack:"net_file"`
	RouteFile   string `msgpack:"route_file"`
	Gui         bool   `msgpack:"use_gui"`
	NumSeconds  int    `msgpack:"num_seconds"`
	MinGreen    int    `msgpack:"min_green"`
	MaxGreen    int    `msgpack:"max_green"`
	YellowTime  int    `msgpack:"yellow_time"`
	DeltaTime   int    `msgpack:"delta_time"`
	Fixed       bool   `msgpack:"fixed_ts"`
	Seed        int64  `msgpack:"sumo_seed"`
	SingleAgent bool   `msgpack:"single_agent"`
}

type StepParams struct {
	Action int `msgpack:"action"`
}

type Status struct {
	Error string `msgpack:"error,omitempty"`
}

func (s *Status) Err() error {
	if s.Error == "" {
		return nil
	}
	return errors.New(s.Error)
}

type statusResponse interface {
	Err() error
}

type StartResponse struct {
	Status      `msgpack:",inline"`
	ObsLow      []float64 `msgpack:"obs_low"`
	ObsHigh     []float64 `msgpack:"obs_high"`
	Actions     int       `msgpack:"actions"`
	DeltaTime   int       `msgpack:"delta_time"`
	GreenPhases int       `msgpack:"green_phases"`
}

type ResetResponse struct {
	Status `msgpack:",inline"`
	Obs    []float64 `msgpack:"obs"`
}

type StepResponse struct {
	Status     `msgpack:",inline"`
	Obs        []float64          `msgpack:"obs"`
	Reward     float64            `msgpack:"reward"`
	Terminated bool               `msgpack:"terminated"`
	Truncated  bool               `msgpack:"truncated"`
	Info       map[string]float64 `msgpack:"info"`
}

type AckResponse struct {
	Status `msgpack:",inline"`
}
