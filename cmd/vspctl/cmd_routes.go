// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/gogpu/vsp"
)

var shortRoutesHelp = "List the routing table"
var longRoutesHelp = `
The routes command lists every entity of the routing table with the
register that routes its output and the node values of its inputs.
`

type cmdRoutes struct{}

func init() {
	addCommand("routes", shortRoutesHelp, longRoutesHelp, func() flags.Commander { return &cmdRoutes{} })
}

func (x *cmdRoutes) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "Entity\tRegister\tInputs")
	for _, r := range vsp.Routes() {
		reg := "-"
		if r.Reg != 0 {
			reg = fmt.Sprintf("%#x", uint32(r.Reg))
		}
		fmt.Fprintf(w, "%s.%d\t%s\t%v\n", r.Type, r.Index, reg, r.Inputs)
	}
	return w.Flush()
}
