package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/deckviewer/internal/client/cli"
	"github.com/dmitrijs2005/deckviewer/internal/client/config"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {
	fmt.Printf("Build version: %s\nBuild date: %s\n", buildVersion, buildDate)
	if buildVersion != "N/A" {
		cli.Release = "deckviewer@" + buildVersion
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: deckviewer [-c config.json] [-a api-url] <slug>")
		os.Exit(2)
	}

	ctx := context.Background()
	app, err := cli.NewApp(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// The REPL blocks on stdin, so an interrupt closes the app from here.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		app.Close()
		os.Exit(130)
	}()

	app.Run(ctx)
}
