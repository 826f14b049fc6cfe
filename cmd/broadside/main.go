// Command broadside computes occupancy heatmaps and joint layouts for hidden
// objects on a partially observed grid, and serves them over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/broadside/internal/heatmap"
	"github.com/banshee-data/broadside/internal/placement"
	"github.com/banshee-data/broadside/internal/version"
)

// errUsage reports a bad command line; usage has already been printed.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "heatmap":
		err = runHeatmap(rest, stdout, stderr)
	case "joint":
		err = runJoint(ctx, rest, stdout, stderr)
	case "fleet":
		err = runFleet(rest, stdout, stderr)
	case "objects":
		err = runObjects(rest, stdout, stderr)
	case "serve":
		err = runServe(ctx, rest, stderr)
	case "migrate":
		err = runMigrate(rest, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.String())
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "broadside %s: %v\n", command, err)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `broadside - placement heatmaps for hidden objects

Usage: broadside <command> [options]

Commands:
  heatmap   Per-object occupancy heatmaps and expected counts for a board
  joint     Enumerate joint non-overlapping layouts and their heatmap
  fleet     List, add, show or delete fleets stored in the database
  objects   Edit or check an objects.json file of placed rectangles
  serve     Run the HTTP API
  migrate   Apply, roll back or report database migrations
  version   Print version information

Run 'broadside <command> -h' for command options.
`)
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("broadside "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags parses args, mapping any flag error to errUsage since the flag
// set has already reported it.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// setDebug routes the engine's diagnostic streams to w. Ops messages are
// always on; diag and trace need -debug.
func setDebug(w io.Writer, debug bool) {
	if debug {
		placement.SetLogWriters(w, w, w)
		heatmap.SetLogWriters(w, w, w)
		return
	}
	placement.SetLogWriters(w, nil, nil)
	heatmap.SetLogWriters(w, nil, nil)
}
