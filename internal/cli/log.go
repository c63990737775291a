package cli

import (
	"fmt"
	"os"
)

var verbose bool

// Infof prints a message only when --verbose is set.
func Infof(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[raytrace] "+format+"\n", args...)
	}
}

// Warnf always prints a warning, regardless of --verbose.
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[raytrace] warning: "+format+"\n", args...)
}

// Errorf always prints an error, regardless of --verbose.
func Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[raytrace] error: "+format+"\n", args...)
}
