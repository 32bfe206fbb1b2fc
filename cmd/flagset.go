package cmd

import (
	"path/filepath"

	"github.com/zeu5/trafficcontrol/util"
)

// Flags are the runtime settings of an invocation
type Flags struct {
	Config string
	Learn  bool
	LogFlags
	MetricsFile string
	Progress    bool
}

type LogFlags struct {
	LogLevel  string
	LogFormat string
	LogOutput string
}

func DefaultFlags() *Flags {
	return &Flags{
		Config: "configs/test.yaml",
		Learn:  true,
		LogFlags: LogFlags{
			LogLevel:  "info",
			LogFormat: "text",
			LogOutput: "stderr",
		},
		MetricsFile: "",
		Progress:    true,
	}
}

// Record saves the flags next to the outputs of a run
func (f *Flags) Record(dir string) error {
	return util.SaveJson(filepath.Join(dir, "flags.json"), f)
}
