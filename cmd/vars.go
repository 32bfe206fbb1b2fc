package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "TRAFFIC"

var (
	flags *Flags = DefaultFlags()
	v     *viper.Viper
)

func AddFlags(cmd *cobra.Command) {
	def := DefaultFlags()
	fs := cmd.PersistentFlags()
	fs.StringP("config", "c", def.Config, "Path to the experiment configuration")
	fs.Bool("learn", def.Learn, "Update agents while running and save their models")
	fs.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", def.LogFormat, "Log format (text, json)")
	fs.String("log-output", def.LogOutput, "Log output (stdout, stderr or a file path)")
	fs.String("metrics-file", def.MetricsFile, "Write run metrics in Prometheus text format to this file")
	fs.Bool("progress", def.Progress, "Show live progress when attached to a terminal")

	v = newViper(fs)
}

// newViper binds fs and TRAFFIC_* environment variables. Flags set on the
// command line take precedence over the environment.
func newViper(fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.BindPFlags(fs)
	return v
}

func UpdateFlags() {
	flags.Config = v.GetString("config")
	flags.Learn = v.GetBool("learn")
	flags.LogLevel = v.GetString("log-level")
	flags.LogFormat = v.GetString("log-format")
	flags.LogOutput = v.GetString("log-output")
	flags.MetricsFile = v.GetString("metrics-file")
	flags.Progress = v.GetBool("progress")
}
