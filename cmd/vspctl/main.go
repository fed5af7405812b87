// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command vspctl drives a VSP device on a registered engine: it builds a
// pipeline, runs frames through it and prints the resulting parameter
// block.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/gogpu/vsp"
	_ "github.com/gogpu/vsp/engine/sim"
)

// Standard streams, redirected for testing.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

type options struct {
	Config  string `long:"config" short:"c" description:"YAML device configuration file"`
	Verbose bool   `long:"verbose" short:"v" description:"Log at debug level"`
}

var optionsData options

// errExtraArgs is returned if extra arguments to a command are found.
var errExtraArgs = errors.New("too many arguments for command")

// cmdInfo holds information needed to call parser.AddCommand(...).
type cmdInfo struct {
	name, shortHelp, longHelp string
	builder                   func() flags.Commander
}

// commands holds information about all commands.
var commands []*cmdInfo

// addCommand registers a command. Commands are added to a fresh parser
// each time Parser is called.
func addCommand(name, shortHelp, longHelp string, builder func() flags.Commander) {
	commands = append(commands, &cmdInfo{
		name:      name,
		shortHelp: shortHelp,
		longHelp:  longHelp,
		builder:   builder,
	})
}

// Parser creates and populates a fresh parser.
func Parser() *flags.Parser {
	optionsData = options{}
	parser := flags.NewParser(&optionsData, flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = "Drive a VSP compositing and scaling device"
	parser.LongDescription = `
vspctl opens a VSP device on a registered execution engine, negotiates the
pad and memory formats of a pipeline, runs frames through it and reports
what the engine received.
`
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.shortHelp, strings.TrimSpace(c.longHelp), c.builder()); err != nil {
			panic(fmt.Sprintf("cannot add command %q: %v", c.name, err))
		}
	}
	return parser
}

// loadConfig returns the device configuration selected by the global
// options.
func loadConfig() (vsp.Config, error) {
	cfg := vsp.DefaultConfig()
	if optionsData.Config != "" {
		var err error
		if cfg, err = vsp.LoadConfig(optionsData.Config); err != nil {
			return cfg, err
		}
	}
	if optionsData.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func run(args []string) error {
	parser := Parser()
	_, err := parser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) {
			switch e.Type {
			case flags.ErrHelp, flags.ErrCommandRequired:
				parser.WriteHelp(Stdout)
				return nil
			case flags.ErrUnknownCommand:
				return fmt.Errorf(`unknown command %q, see "vspctl --help"`, args[0])
			}
		}
	}
	return err
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
