package environment

import (
	"errors"
	"testing"

	"github.com/zeu5/trafficcontrol/config"
	"github.com/zeu5/trafficcontrol/environment/intersection"
)

func TestBuildIntersection(t *testing.T) {
	params := config.DefaultEnvironment()
	params.RouteFile = ""
	params.NumSeconds = 50
	b := NewBuilder(params, nil)

	fixed, err := b.Build(true)
	if err != nil {
		t.Fatal(err)
	}
	controlled, err := b.Build(false)
	if err != nil {
		t.Fatal(err)
	}
	if fixed == controlled {
		t.Fatal("handles are shared")
	}
	if _, ok := fixed.(*intersection.Env); !ok {
		t.Fatalf("unexpected handle type %T", fixed)
	}
	if fixed.DeltaTime() != params.DeltaTime {
		t.Fatalf("delta time %d", fixed.DeltaTime())
	}
}

func TestBuildUnknownBackend(t *testing.T) {
	params := config.DefaultEnvironment()
	params.Backend = "carla"
	if _, err := NewBuilder(params, nil).Build(false); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected unknown backend, got %v", err)
	}
}

func TestBuildBridgeUnreachable(t *testing.T) {
	params := config.DefaultEnvironment()
	params.Backend = BackendBridge
	params.BridgeAddr = "unix:/nonexistent/bridge.sock"
	if _, err := NewBuilder(params, nil).Build(false); err == nil {
		t.Fatal("expected dial error")
	}
}
