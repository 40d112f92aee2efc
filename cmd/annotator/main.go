// Package main is the entry point for the annotator command.
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

	"github.com/dshills/annotator/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "annotator - lay out a document and overlay labels on character ranges\n\n")
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  annotator render  [options] doc.txt   Write the annotated document as PNG\n")
	fmt.Fprintf(w, "  annotator view    [options] doc.txt   Browse and label the document in the terminal\n")
	fmt.Fprintf(w, "  annotator inspect [options] doc.txt   Print lines, labels and layout summary\n")
	fmt.Fprintf(w, "  annotator version                     Show version information\n\n")
	fmt.Fprintf(w, "Run 'annotator <command> -h' for command options.\n")
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "render", "view", "inspect":
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "annotator %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmd)
		usage(stderr)
		return 2
	}

	opts, docPath, err := parseFlags(cmd, rest, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	opts.Stdout = stdout
	opts.Stderr = stderr

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "render":
		var out string
		out, err = application.Render(ctx, docPath)
		if err == nil {
			fmt.Fprintln(stdout, out)
		}
	case "inspect":
		err = application.Inspect(ctx, docPath)
	case "view":
		err = application.View(ctx, docPath, nil)
	}

	if err != nil {
		if errors.Is(err, app.ErrQuit) || errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(cmd string, args []string, stderr io.Writer) (app.Options, string, error) {
	var opts app.Options
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.LabelsPath, "labels", "", "Label file to import (YAML or JSON)")
	fs.StringVar(&opts.LabelsPath, "l", "", "Label file to import (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")

	switch cmd {
	case "render":
		fs.StringVar(&opts.OutPath, "o", "", "Output PNG (default: document name with .png)")
	case "view":
		fs.StringVar(&opts.OutPath, "out", "", "Where 's' saves labels (default: the label file)")
		fs.BoolVar(&opts.Watch, "watch", false, "Re-import when the document or labels change")
	}

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: annotator %s [options] doc.txt\n\nOptions:\n", cmd)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, "", fmt.Errorf("%s needs exactly one document, got %d", cmd, fs.NArg())
	}
	return opts, fs.Arg(0), nil
}
