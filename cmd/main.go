package main

import (
	"workshop-scheduler/cmd/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := cli.Execute(); err != nil {
		logrus.Fatalf("Failed to run application: %v", err)
	}
}
