package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/deckviewer/internal/flagx"
)

// FlagNames are the value flags owned by this package.
var FlagNames = []string{"-a", "-s", "-ua", "-db", "-tour", "-log"}

// parseFlags overlays cfg with the command-line flags it owns. Other
// arguments are filtered out with flagx.FilterArgs.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], FlagNames)

	fs := flag.NewFlagSet("deckviewer", flag.ContinueOnError)
	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the public deck API")
	fs.StringVar(&cfg.Slug, "s", cfg.Slug, "deck slug")
	fs.StringVar(&cfg.UserAgent, "ua", cfg.UserAgent, "user agent reported on session creation")
	fs.StringVar(&cfg.StateDB, "db", cfg.StateDB, "path of the local state database")
	fs.StringVar(&cfg.TourScope, "tour", cfg.TourScope, "tour flag scope: global or deck")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// "deckviewer q3-board-update" is shorthand for -s; an explicit -s wins.
	slugSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "s" {
			slugSet = true
		}
	})
	if !slugSet {
		valueFlags := append([]string{"-c", "-config", "--config"}, FlagNames...)
		if pos := flagx.Positional(os.Args[1:], valueFlags); len(pos) > 0 {
			cfg.Slug = pos[0]
		}
	}
	return nil
}
