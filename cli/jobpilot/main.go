package main

import (
	"os"

	jobpilotcmder "github.com/papercomputeco/jobpilot/cmd/jobpilot"
)

func main() {
	cmd := jobpilotcmder.NewJobpilotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
