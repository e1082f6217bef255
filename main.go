// Package main is the entry point for the CodeScribe CLI.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/ManagementMO/CodeScribe-sub000/cmd"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
)

func main() {
	// Interrupt is a user decision, not a failure.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		<-interrupts
		logging.Info("interrupted, exiting")
		os.Exit(0)
	}()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
