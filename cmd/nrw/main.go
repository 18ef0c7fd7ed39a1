package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"nrw/internal/services"
)

const (
	exitFailure     = 1
	exitConfig      = 2
	exitLocked      = 3
	exitPersistence = 4
	exitInterrupted = 130
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		code := exitCode(err)
		if code != exitInterrupted {
			fmt.Fprintln(os.Stderr, "nrw:", err)
		}
		os.Exit(code)
	}
}

// exitCode maps a command error onto the process status so cron wrappers can
// tell a held lock apart from a broken catalog.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, services.ErrConfiguration):
		return exitConfig
	case errors.Is(err, services.ErrLocked):
		return exitLocked
	case errors.Is(err, services.ErrPersistence):
		return exitPersistence
	default:
		return exitFailure
	}
}
