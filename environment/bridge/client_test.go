package bridge

import (
	"bytes"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

type serverRequest struct {
	Endpoint string             `msgpack:"endpoint"`
	Params   msgpack.RawMessage `msgpack:"params"`
}

// fakeBridge serves a two-action environment that truncates after three
// steps
type fakeBridge struct {
	listener net.Listener
	mtx      sync.Mutex
	calls    []string
	start    StartParams
	failStep bool
}

func newFakeBridge(t *testing.T) *fakeBridge {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeBridge{listener: l}
	go f.serve()
	t.Cleanup(func() { l.Close() })
	return f
}

func (f *fakeBridge) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeBridge) handle(conn net.Conn) {
	defer conn.Close()
	steps := 0
	for {
		req := serverRequest{}
		if err := ReadFrame(conn, &req); err != nil {
			return
		}
		f.mtx.Lock()
		f.calls = append(f.calls, req.Endpoint)
		failStep := f.failStep
		f.mtx.Unlock()

		var resp interface{}
		switch req.Endpoint {
		case EndpointStart:
			start := StartParams{}
			msgpack.Unmarshal(req.Params, &start)
			f.mtx.Lock()
			f.start = start
			f.mtx.Unlock()
			resp = &StartResponse{ObsLow: []float64{0, 0, 0}, ObsHigh: []float64{1, 1, 1}, Actions: 2, DeltaTime: start.DeltaTime}
		case EndpointReset:
			steps = 0
			resp = &ResetResponse{Obs: []float64{1, 0, 0}}
		case EndpointStep, EndpointSample:
			if failStep {
				resp = &StepResponse{Status: Status{Error: "traci connection lost"}}
				break
			}
			action := -1
			if req.Endpoint == EndpointStep {
				p := StepParams{}
				msgpack.Unmarshal(req.Params, &p)
				action = p.Action
			}
			steps++
			resp = &StepResponse{
				Obs:       []float64{0, 1, 0.5},
				Reward:    float64(action),
				Truncated: steps >= 3,
				Info: map[string]float64{
					"step":                      float64(steps * 5),
					"system_total_stopped":      1,
					"system_total_waiting_time": 2,
					"system_mean_waiting_time":  2,
					"system_mean_speed":         3,
				},
			}
		case EndpointSimStep, EndpointClose:
			resp = &AckResponse{}
		default:
			resp = &AckResponse{Status: Status{Error: "unknown endpoint"}}
		}
		if err := WriteFrame(conn, resp); err != nil {
			return
		}
		if req.Endpoint == EndpointClose {
			return
		}
	}
}

func (f *fakeBridge) Calls() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]string(nil), f.calls...)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

func TestFrameRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	in := &StepResponse{Obs: []float64{0.5}, Reward: -1.25, Truncated: true, Info: map[string]float64{"step": 5}}
	if err := WriteFrame(buf, in); err != nil {
		t.Fatal(err)
	}
	out := &StepResponse{}
	if err := ReadFrame(buf, out); err != nil {
		t.Fatal(err)
	}
	if out.Reward != in.Reward || !out.Truncated || out.Info["step"] != 5 || out.Obs[0] != 0.5 {
		t.Fatalf("decoded %+v", out)
	}

	// oversized length header
	bad := bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff})
	if err := ReadFrame(bad, out); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected frame too large, got %v", err)
	}
}

func TestClientEpisode(t *testing.T) {
	server := newFakeBridge(t)
	client, err := Dial(&Config{
		Addr:  server.listener.Addr().String(),
		Start: StartParams{RouteFile: "trafic.rou.xml", DeltaTime: 5, Fixed: true},
	}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if client.ActionSpace().N != 2 || client.ObservationSpace().Dim() != 3 || client.DeltaTime() != 5 {
		t.Fatalf("unexpected spaces %s %s", client.ActionSpace(), client.ObservationSpace())
	}
	server.mtx.Lock()
	start := server.start
	server.mtx.Unlock()
	if !start.SingleAgent || !start.Fixed || start.RouteFile != "trafic.rou.xml" {
		t.Fatalf("start params not passed through: %+v", start)
	}

	obs, err := client.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if client.Encode(obs) != "0,0" {
		t.Fatalf("encoded %q", client.Encode(obs))
	}

	steps := 0
	for {
		step, err := client.Step(1)
		if err != nil {
			t.Fatal(err)
		}
		steps++
		if step.Reward != 1 {
			t.Fatalf("reward %f", step.Reward)
		}
		if step.Done() {
			break
		}
	}
	if steps != 3 {
		t.Fatalf("episode took %d steps", steps)
	}
	if err := client.SimStep(); err != nil {
		t.Fatal(err)
	}

	path, err := client.SaveCSV(filepath.Join(t.TempDir(), "B", "B"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "B_ep1.csv" {
		t.Fatalf("csv path %s", path)
	}

	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Step(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	// reset reconnects
	if _, err := client.Reset(); err != nil {
		t.Fatal(err)
	}
	client.Close()

	calls := server.Calls()
	want := []string{EndpointStart, EndpointReset, EndpointStep, EndpointStep, EndpointStep, EndpointSimStep, EndpointClose, EndpointStart, EndpointReset, EndpointClose}
	if len(calls) != len(want) {
		t.Fatalf("calls %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls %v, want %v", calls, want)
		}
	}
}

func TestClientSampleReportsTruncation(t *testing.T) {
	server := newFakeBridge(t)
	client, err := Dial(&Config{Addr: server.listener.Addr().String(), Start: StartParams{DeltaTime: 5, Fixed: true}}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	if _, err := client.Reset(); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		step, err := client.Sample()
		if err != nil {
			t.Fatal(err)
		}
		if step.Terminated || step.Truncated != (i == 3) || step.Info["step"] != float64(i*5) {
			t.Fatalf("sample %d: %+v", i, step)
		}
	}
}

func TestClientRemoteError(t *testing.T) {
	server := newFakeBridge(t)
	server.mtx.Lock()
	server.failStep = true
	server.mtx.Unlock()
	client, err := Dial(&Config{Addr: server.listener.Addr().String(), Start: StartParams{DeltaTime: 5}}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	if _, err := client.Sample(); !errors.Is(err, ErrRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestNetwork(t *testing.T) {
	if n, a := network("unix:/tmp/sumo.sock"); n != "unix" || a != "/tmp/sumo.sock" {
		t.Fatalf("got %s %s", n, a)
	}
	if n, a := network("localhost:9000"); n != "tcp" || a != "localhost:9000" {
		t.Fatalf("got %s %s", n, a)
	}
}
