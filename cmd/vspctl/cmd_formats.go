// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/gogpu/gputypes"
	"github.com/jessevdk/go-flags"

	"github.com/gogpu/vsp/format"
)

var shortFormatsHelp = "List the supported memory formats"
var longFormatsHelp = `
The formats command lists the memory formats the read and write pipes
handle, with the link code they map to, their hardware format and the
GPU texture format with the same memory layout, if any.
`

type cmdFormats struct {
	YUV bool `long:"yuv" description:"Only list YUV formats"`
}

func init() {
	addCommand("formats", shortFormatsHelp, longFormatsHelp, func() flags.Commander { return &cmdFormats{} })
}

func (x *cmdFormats) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "FourCC\tCode\tHW\tPlanes\tAlpha\tTexture")
	for _, info := range format.All() {
		if x.YUV && !info.Code.IsYUV() {
			continue
		}
		tex := "-"
		if tf := info.TextureFormat(); tf != gputypes.TextureFormatUndefined {
			tex = tf.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%#02x\t%d\t%v\t%s\n", info.FourCC, info.Code, info.HWFormat, info.Planes, info.Alpha, tex)
	}
	return w.Flush()
}
