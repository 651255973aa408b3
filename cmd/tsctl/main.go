package main

import (
	"os"

	"github.com/highercomve/timesheet/internal/cli"
	"github.com/highercomve/timesheet/internal/version"
)

func main() {
	if err := cli.Execute(version.Version); err != nil {
		os.Exit(1)
	}
}
