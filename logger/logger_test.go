package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitializeJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l := Initialize("debug", "json", path)
	if l != GetLogger() || l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("unexpected logger state, level %s", l.GetLevel())
	}
	l.WithField("agent", "A").Info("running agent")

	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	entry := map[string]interface{}{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["agent"] != "A" || entry["msg"] != "running agent" {
		t.Fatalf("entry %v", entry)
	}
}

func TestInitializeFallbacks(t *testing.T) {
	l := Initialize("loud", "xml", "stderr")
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("formatter %T", l.Formatter)
	}
	l = Initialize("warn", "text", "stdout")
	if _, ok := l.Formatter.(*logrus.TextFormatter); !ok || l.GetLevel() != logrus.WarnLevel {
		t.Fatalf("formatter %T level %s", l.Formatter, l.GetLevel())
	}
}

func TestInitializeCreatesLogDirAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "logs", "run.log")
	l := Initialize("info", "text", path)
	l.WithField("episode", 3).Info("episode finished")
	if err := Close(); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// files are not terminals, so no color codes
	if !strings.Contains(string(bs), "episode=3") || strings.Contains(string(bs), "\x1b[") {
		t.Fatalf("log %q", bs)
	}
	l.Info("after close")
	if after, _ := os.ReadFile(path); len(after) != len(bs) {
		t.Fatal("logger still writes to a closed file")
	}
	if err := Close(); err != nil {
		t.Fatal(err)
	}
}
