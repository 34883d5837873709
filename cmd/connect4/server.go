package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dcrodman/connect4/internal"
	"github.com/dcrodman/connect4/internal/core"
)

// ServerCommand loads the config and runs the server until it receives
// SIGINT or SIGTERM.
func ServerCommand(cmd *cobra.Command, args []string) {
	config, err := core.LoadConfig(ConfigFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("Connect Four server listening on %s\n", config.ListenAddress())

	// Bind the Controller to one top-level server context so that we can shut down cleanly.
	ctx, cancel := context.WithCancel(context.Background())

	// Register a SIGTERM handler so that Ctrl-C will shut the servers down gracefully.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go exitHandler(cancel, c)

	controller := &internal.Controller{Config: config}
	if err := controller.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("shut down")
}

// exitHandler cancels the server context on the first signal and hard exits
// on the second.
func exitHandler(cancelFn func(), c chan os.Signal) {
	<-c
	fmt.Println("waiting to shut down gracefully...")
	cancelFn()

	<-c
	fmt.Println("hard exiting (killed)")
	os.Exit(1)
}
