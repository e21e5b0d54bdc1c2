// Command wikiload copies one time window of a wiki's recent changes into a
// local DuckDB or SQLite table.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
