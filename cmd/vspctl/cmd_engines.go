// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/gogpu/vsp/engine"
)

var shortEnginesHelp = "List the registered execution engines"
var longEnginesHelp = `
The engines command lists the execution engines built into vspctl, best
first. An engine that cannot run on this system shows the reason. The
first available engine is used when the configuration names none.
`

type cmdEngines struct {
	Available bool `long:"available" description:"Only list engines that can run"`
}

func init() {
	addCommand("engines", shortEnginesHelp, longEnginesHelp, func() flags.Commander { return &cmdEngines{} })
}

func (x *cmdEngines) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tPriority\tStatus\tDescription")
	for _, st := range engine.Engines() {
		status := "available"
		if st.Err != nil {
			if x.Available {
				continue
			}
			status = st.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", st.Name, st.Priority, status, st.Description)
	}
	return w.Flush()
}
