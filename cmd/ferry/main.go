package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Interrupts already surfaced to the user; no second line of noise.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "ferry: %v\n", err)
		}
		os.Exit(1)
	}
}
