package main

import (
	"os"

	"github.com/zeu5/trafficcontrol/cmd"
	"github.com/zeu5/trafficcontrol/logger"
)

func main() {
	err := cmd.RootCommand().Execute()
	if err != nil {
		logger.GetLogger().Error(err)
	}
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
