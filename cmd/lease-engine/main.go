/*
main.go - lease-engine entry point

COMMANDS:
  serve      Run the HTTP API over a SQLite database
  evaluate   Resolve a JSON file of units offline
  classify   Classify a single lease

CONFIGURATION:
  --config points at a TOML file (see package config). Values are layered
  defaults < file < LEASE_ENGINE_* environment < flags.

EXAMPLES:
  # Run with an in-memory database and demo data
  lease-engine serve --db=":memory:" --seed=single-building

  # Evaluate units as of a given day in a property's zone
  lease-engine evaluate --input units.json --tz America/New_York --as-of 2024-07-01

  # Where does a lease stand today?
  lease-engine classify --start 2024-01-01 --end 2024-12-31

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
