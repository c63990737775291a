// Package cli wires up the raytrace command-line tool: render, stats, and
// validate subcommands over a cobra root.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "raytrace",
	Short: "Offline KD-tree path tracer",
	Long: `raytrace — renders a triangle-mesh scene with a SAH-built KD-tree
and a Monte-Carlo path integrator, writing a half-float OpenEXR image
plus a JSON manifest describing the run.`,
	Version: version,
}

// Execute runs the root command, dispatching to whichever subcommand was
// invoked.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"raytrace %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}
