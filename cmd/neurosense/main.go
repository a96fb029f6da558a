package main

import (
	"os"

	"github.com/neurosense/assessment-service/cmd/neurosense/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
