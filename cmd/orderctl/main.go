package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCmd(&app{})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}
