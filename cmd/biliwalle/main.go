package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "biliwalle: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "biliwalle: interrupted")
		}
		os.Exit(1)
	}
}
