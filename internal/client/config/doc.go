// Package config loads runtime configuration for the deck viewer.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config, or DECKVIEWER_CONFIG.
//  3. A .env file in the working directory, then DECKVIEWER_* environment
//     variables.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     base URL of the public deck API
//	-s string     deck slug
//	-ua string    user agent reported on session creation
//	-db string    path of the local state database
//	-tour string  tour flag scope: global or deck
//	-log string   log level: debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.example.com",
//	  "slug": "q3-board-update",
//	  "flush_interval": "30s",
//	  "tour_scope": "global",
//	  "state_db": "deckviewer.db"
//	}
package config
