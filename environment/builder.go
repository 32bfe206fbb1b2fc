package environment

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/core"
	"github.com/zeu5/trafficcontrol/environment/bridge"
	"github.com/zeu5/trafficcontrol/environment/intersection"
)

const (
	BackendIntersection = "intersection"
	BackendBridge       = "bridge"
)

var ErrUnknownBackend = errors.New("unknown environment backend")

// Builder produces fresh environment handles from the shared simulation
// parameters. Parameters are passed through unchecked; failures come from
// the backend.
type Builder struct {
	params config.Environment
	log    logrus.FieldLogger

	// number of handles built so far
	built int
}

func NewBuilder(params config.Environment, log logrus.FieldLogger) *Builder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Builder{
		params: params,
		log:    log,
	}
}

// Build returns a new single-agent handle. fixed selects fixed-cycle signal
// timing, otherwise the agent controls the signal.
func (b *Builder) Build(fixed bool) (core.Environment, error) {
	b.built++
	log := b.log.WithFields(logrus.Fields{
		"backend": b.params.Backend,
		"fixed":   fixed,
		"handle":  b.built,
	})
	switch b.params.Backend {
	case BackendIntersection, "":
		return intersection.NewEnv(b.intersectionConfig(fixed), log)
	case BackendBridge:
		return bridge.Dial(b.bridgeConfig(fixed), log)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, b.params.Backend)
}

func (b *Builder) intersectionConfig(fixed bool) *intersection.Config {
	c := intersection.DefaultConfig()
	c.NumSeconds = b.params.NumSeconds
	c.MinGreen = b.params.MinGreen
	c.MaxGreen = b.params.MaxGreen
	c.YellowTime = b.params.YellowTime
	c.DeltaTime = b.params.DeltaTime
	if b.params.FixedGreen > 0 {
		c.FixedGreen = b.params.FixedGreen
	}
	c.Fixed = fixed
	c.Seed = b.params.Seed
	if b.params.RouteFile != "" {
		c.RouteFile = b.params.RouteFile
		c.Rates = nil
	}
	return c
}

func (b *Builder) bridgeConfig(fixed bool) *bridge.Config {
	return &bridge.Config{
		Addr: b.params.BridgeAddr,
		Start: bridge.StartParams{
			NetFile:    b.params.NetFile,
			RouteFile:  b.params.RouteFile,
			Gui:        b.params.Gui,
			NumSeconds: b.params.NumSeconds,
			MinGreen:   b.params.MinGreen,
			MaxGreen:   b.params.MaxGreen,
			YellowTime: b.params.YellowTime,
			DeltaTime:  b.params.DeltaTime,
			Fixed:      fixed,
			Seed:       b.params.Seed,
		},
	}
}
