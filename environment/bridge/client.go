package bridge

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/trafficcontrol/core"
)

var ErrClosed = errors.New("bridge closed")

// Config of a bridge connection. Addr is host:port, or unix:<path> for a
// unix socket.
type Config struct {
	Addr        string
	DialTimeout time.Duration
	Start       StartParams
}

// Client drives a simulator environment hosted by an external bridge
// process
type Client struct {
	config *Config

	mtx  *sync.Mutex
	conn net.Conn

	obsSpace    core.Space
	actSpace    core.Space
	deltaTime   int
	greenPhases int
	trace       *core.Trace

	log logrus.FieldLogger
}

var _ core.Environment = &Client{}

func Dial(c *Config, log logrus.FieldLogger) (*Client, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	client := &Client{
		config: c,
		mtx:    new(sync.Mutex),
		trace:  core.NewTrace(),
		log:    log.WithField("bridge", c.Addr),
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func network(addr string) (string, string) {
	if strings.HasPrefix(addr, "unix:") {
		return "unix", strings.TrimPrefix(addr, "unix:")
	}
	return "tcp", addr
}

func (c *Client) connect() error {
	netw, addr := network(c.config.Addr)
	conn, err := net.DialTimeout(netw, addr, c.config.DialTimeout)
	if err != nil {
		return fmt.Errorf("dialing bridge %s: %w", c.config.Addr, err)
	}
	c.conn = conn

	start := c.config.Start
	start.SingleAgent = true
	resp := &StartResponse{}
	if err := c.call(EndpointStart, start, resp); err != nil {
		conn.Close()
		c.conn = nil
		return err
	}
	if len(resp.ObsLow) != len(resp.ObsHigh) || resp.Actions <= 0 {
		conn.Close()
		c.conn = nil
		return fmt.Errorf("%w: malformed spaces in start response", ErrRemote)
	}
	c.obsSpace = core.NewBox(resp.ObsLow, resp.ObsHigh)
	c.actSpace = core.NewDiscrete(resp.Actions)
	c.deltaTime = resp.DeltaTime
	if c.deltaTime == 0 {
		c.deltaTime = start.DeltaTime
	}
	c.greenPhases = resp.GreenPhases
	if c.greenPhases == 0 {
		c.greenPhases = resp.Actions
	}
	c.log.WithFields(logrus.Fields{
		"observation": c.obsSpace.String(),
		"action":      c.actSpace.String(),
	}).Debug("bridge started")
	return nil
}

func (c *Client) call(endpoint string, params interface{}, resp statusResponse) error {
	if c.conn == nil {
		return ErrClosed
	}
	if err := WriteFrame(c.conn, &Request{Endpoint: endpoint, Params: params}); err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	if err := ReadFrame(c.conn, resp); err != nil {
		return fmt.Errorf("%s response: %w", endpoint, err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrRemote, endpoint, err)
	}
	return nil
}

// Reset starts a new episode, reconnecting if the client was closed
func (c *Client) Reset() (core.Observation, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.conn == nil {
		if err := c.connect(); err != nil {
			return nil, err
		}
	}
	resp := &ResetResponse{}
	if err := c.call(EndpointReset, nil, resp); err != nil {
		return nil, err
	}
	c.trace.Reset()
	return core.Observation(resp.Obs), nil
}

func (c *Client) Step(action int) (core.Step, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.stepCall(EndpointStep, StepParams{Action: action})
}

func (c *Client) SimStep() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.call(EndpointSimStep, nil, &AckResponse{})
}

func (c *Client) Sample() (core.Step, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.stepCall(EndpointSample, nil)
}

func (c *Client) stepCall(endpoint string, params interface{}) (core.Step, error) {
	resp := &StepResponse{}
	if err := c.call(endpoint, params, resp); err != nil {
		return core.Step{}, err
	}
	if len(resp.Info) > 0 {
		c.trace.AddRow(resp.Info)
	}
	return core.Step{
		Observation: core.Observation(resp.Obs),
		Reward:      resp.Reward,
		Terminated:  resp.Terminated,
		Truncated:   resp.Truncated,
		Info:        resp.Info,
	}, nil
}

func (c *Client) Encode(obs core.Observation) string {
	return core.EncodeObservation(obs, c.greenPhases)
}

func (c *Client) ObservationSpace() core.Space {
	return c.obsSpace
}

func (c *Client) ActionSpace() core.Space {
	return c.actSpace
}

func (c *Client) DeltaTime() int {
	return c.deltaTime
}

func (c *Client) SaveCSV(outFile string, episode int) (string, error) {
	return c.trace.WriteCSV(outFile, episode)
}

// Close stops the remote simulation and drops the connection
func (c *Client) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.call(EndpointClose, nil, &AckResponse{})
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	c.conn = nil
	return err
}
