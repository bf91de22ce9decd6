// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/apexsync/apexsync/internal/cacheutil"
	"github.com/apexsync/apexsync/internal/command"
	"github.com/apexsync/apexsync/internal/config"
	"github.com/apexsync/apexsync/internal/log"
	"github.com/apexsync/apexsync/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

// handleVersion checks for --version/-v and returns whether it was handled.
func handleVersion(args []string) bool {
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return true
		}
	}
	return false
}

// handleNakedCommand appends --help if no command is provided.
func handleNakedCommand(args []string) []string {
	if len(args) <= 1 {
		return append(args, "--help")
	}
	return args
}

// processCommandArgs handles command-specific argument processing.
func processCommandArgs(args []string, app *cli.Command) []string {
	if len(args) > 1 && args[1] == "completion" {
		// Short-circuit completion: pass args directly.
		return args
	}

	args = processSetOnly(args)
	log.Debugf("args after set processing: args=%v", args)

	return deduplicateFlags(args, boolFlags(app, args[1]))
}

// boolFlags reports which flag tokens of the named subcommand take no value.
func boolFlags(app *cli.Command, name string) func(string) bool {
	names := map[string]bool{}
	if app != nil {
		if sub := app.Command(name); sub != nil {
			for _, f := range sub.Flags {
				if _, ok := f.(*cli.BoolFlag); !ok {
					continue
				}
				for _, n := range f.Names() {
					names["-"+n] = true
					names["--"+n] = true
				}
			}
		}
	}
	return func(flag string) bool { return names[flag] }
}

// initAndRunApp initializes the app, processes the args against it and runs
// it, returning the exit code.
func initAndRunApp(args []string, process bool) int {
	// Pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("cache ensure err: err=%v", err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app init err: err=%v", err)
		return 1
	}

	if process {
		args = processCommandArgs(args, app)
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Debugf("app run err: err=%v", err)
		return 2
	}

	return 0
}

func realMain() int {
	// A missing .env is normal.
	_ = godotenv.Load()

	log.InitLogger()

	args := os.Args
	log.Debugf("args captured: args=%v", args)

	if handleVersion(args) {
		return 0
	}

	args = handleNakedCommand(args)

	// If --help appears anywhere, skip command processing and let the CLI handle it.
	helpFound := false
	for _, a := range args {
		if a == "--help" || a == "-h" {
			helpFound = true
			break
		}
	}

	return initAndRunApp(args, !helpFound)
}

// processSetOnly expands an @set argument into the flags listed under
// <command>.<set> in the config file, at the position the @set appeared.
// Without an explicit @set the <command>.defaults list, if any, is inserted
// right after the command so later flags on the command line override it.
func processSetOnly(args []string) []string {
	if len(args) < 2 {
		return args
	}

	// Look for an explicit @set argument starting from index 2.
	idx := 2
	set := "defaults"
	insertIdx := idx
	for i, a := range args[idx:] {
		if strings.HasPrefix(a, "@") {
			set = a[1:]
			insertIdx = idx + i
			// Remove the @set argument.
			args = append(args[:insertIdx:insertIdx], args[insertIdx+1:]...)
			break
		}
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	if len(setArgs) == 0 {
		return args
	}

	var expanded []string
	for _, arg := range setArgs {
		expanded = append(expanded, strings.Fields(arg)...)
	}

	out := make([]string, 0, len(args)+len(expanded))
	out = append(out, args[:insertIdx]...)
	out = append(out, expanded...)
	return append(out, args[insertIdx:]...)
}

// deduplicateFlags keeps only the last occurrence of each flag after the
// command. A flag that isBool does not report as boolean and that is followed
// by a token not starting with "-" takes it as its value; --name=value counts
// as the same flag as --name. Positional arguments are kept in order. A nil
// isBool treats every flag as possibly taking a value.
func deduplicateFlags(args []string, isBool func(string) bool) []string {
	if len(args) <= 2 {
		return args
	}

	type group struct {
		key    string
		tokens []string
	}

	var groups []group
	rest := args[2:]
	for i := 0; i < len(rest); i++ {
		a := rest[i]
		if !strings.HasPrefix(a, "-") || a == "-" {
			groups = append(groups, group{tokens: []string{a}})
			continue
		}

		key, _, hasValue := strings.Cut(a, "=")
		g := group{key: key, tokens: []string{a}}
		takesValue := isBool == nil || !isBool(key)
		if !hasValue && takesValue && i+1 < len(rest) && !strings.HasPrefix(rest[i+1], "-") {
			g.tokens = append(g.tokens, rest[i+1])
			i++
		}
		groups = append(groups, g)
	}

	last := map[string]int{}
	for i, g := range groups {
		if g.key != "" {
			last[g.key] = i
		}
	}

	out := append([]string{}, args[:2]...)
	for i, g := range groups {
		if g.key != "" && last[g.key] != i {
			continue
		}
		out = append(out, g.tokens...)
	}
	return out
}
