// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

// Command ratingrec runs the recommender from the command line.
//
// Usage:
//
//	ratingrec prepare    [flags]
//	ratingrec similarity [flags] <userA> <userB>
//	ratingrec neighbors  [flags] <user>
//	ratingrec recommend  [flags] <user>
//	ratingrec evaluate   [flags]
//
// Every subcommand loads the same configuration as the server (see
// internal/config), prepares the dataset, and writes its result to stdout
// as JSON. Logs go to stderr.
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
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type command struct {
	name     string
	args     string
	summary  string
	setFlags func(fs *flag.FlagSet, o *options)
	run      func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{
		name:     "prepare",
		summary:  "load the stored train/test split, or build and store it from the source files",
		setFlags: prepareFlags,
		run:      runPrepare,
	},
	{
		name:    "similarity",
		args:    "<userA> <userB>",
		summary: "print the Pearson similarity of two users",
		run:     runSimilarity,
	},
	{
		name:     "neighbors",
		args:     "<user>",
		summary:  "print a user's nearest neighbors",
		setFlags: neighborFlags,
		run:      runNeighbors,
	},
	{
		name:     "recommend",
		args:     "<user>",
		summary:  "print recommendations for a user",
		setFlags: recommendFlags,
		run:      runRecommend,
	},
	{
		name:     "evaluate",
		summary:  "measure precision and recall against the test split",
		setFlags: evaluateFlags,
		run:      runEvaluate,
	},
}

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := findCommand(args[0])
	if !ok {
		fmt.Fprintf(stderr, "ratingrec: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}

	var opts options
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ratingrec %s [flags] %s\n\n%s\n\nFlags:\n", cmd.name, cmd.args, cmd.summary)
		fs.PrintDefaults()
	}
	commonFlags(fs, &opts)
	if cmd.setFlags != nil {
		cmd.setFlags(fs, &opts)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	e, err := newEnv(fs, &opts, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ratingrec %s: %v\n", cmd.name, err)
		return exitError
	}
	defer e.close()

	if err := cmd.run(ctx, e, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "ratingrec %s: %v\n", cmd.name, err)
		if errors.Is(err, errUsage) {
			fs.Usage()
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ratingrec <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'ratingrec <command> -h' for command flags.")
}
