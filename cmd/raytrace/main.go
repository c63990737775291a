// Command raytrace renders KD-tree accelerated, Monte-Carlo path-traced
// scenes from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/kdpath/tracer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
