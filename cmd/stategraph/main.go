// Command stategraph navigates and refines UI state-action graphs.
package main

import (
	"os"

	"github.com/aretw0/stategraph/internal/presentation/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errReported {
			tui.Fail(os.Stderr, "%v", err)
		}
		os.Exit(1)
	}
}
