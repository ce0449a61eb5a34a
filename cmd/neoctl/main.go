// Command neoctl inspects NEOs and queries close approaches from the command
// line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
