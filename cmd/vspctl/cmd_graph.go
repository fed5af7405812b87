// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/gogpu/vsp"
)

var shortGraphHelp = "Show the entities and links of a device"
var longGraphHelp = `
The graph command opens a device with the configured entity counts and
lists its entities and the links between them. Only enabled links are
shown unless --all is given.
`

type cmdGraph struct {
	All bool `long:"all" description:"Also show disabled links"`
}

func init() {
	addCommand("graph", shortGraphHelp, longGraphHelp, func() flags.Commander { return &cmdGraph{} })
}

func (x *cmdGraph) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vsp.SetLogger(cfg.Log.NewLogger(Stderr))
	defer vsp.SetLogger(nil)

	dev, err := vsp.Open(vsp.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer dev.Close()

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "Entity\tPads\tVideo")
	for _, e := range dev.Entities() {
		fmt.Fprintf(w, "%s\t%d\t%v\n", e.Name(), e.NumPads(), e.Video() != nil)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Link\tEnabled")
	for _, l := range dev.Links() {
		if !x.All && !l.Enabled() {
			continue
		}
		fmt.Fprintf(w, "%s\t%v\n", l, l.Enabled())
	}
	return w.Flush()
}
