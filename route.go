// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"

	"github.com/gogpu/vsp/param"
)

// NodeID is a routing node value: the hardware input an output is routed
// to.
type NodeID uint32

// Routing nodes.
const (
	// NodeUnused disconnects an output.
	NodeUnused NodeID = 63

	nodeUDSBase   NodeID = 17
	nodeBRUInBase NodeID = 23
	nodeWPFBase   NodeID = 56
)

// NodeRPF returns the node of read pipe n.
func NodeRPF(n int) NodeID { return NodeID(n) }

// NodeUDS returns the input node of scaler n.
func NodeUDS(n int) NodeID { return nodeUDSBase + NodeID(n) }

// NodeBRUIn returns the node of compositor input n.
func NodeBRUIn(n int) NodeID { return nodeBRUInBase + NodeID(n) }

// NodeWPF returns the input node of write pipe n.
func NodeWPF(n int) NodeID { return nodeWPFBase + NodeID(n) }

// RouteReg is the address of an output routing register. Zero means the
// entity has no routable output.
type RouteReg uint32

// Routing registers.
const (
	routeRegRPFBase RouteReg = 0x2000
	routeRegUDSBase RouteReg = 0x2028
	RouteRegBRU     RouteReg = 0x204c
)

// RouteRegRPF returns the routing register of read pipe n.
func RouteRegRPF(n int) RouteReg { return routeRegRPFBase + RouteReg(4*n) }

// RouteRegUDS returns the routing register of scaler n.
func RouteRegUDS(n int) RouteReg { return routeRegUDSBase + RouteReg(4*n) }

// Route describes how an entity is wired into the routing fabric.
type Route struct {
	Type  EntityType
	Index int

	// Reg is the register routing the entity output, or 0.
	Reg RouteReg

	// Inputs holds the node value of each sink pad.
	Inputs []NodeID
}

// routes is the static route table of the device.
var routes = []Route{
	{EntityCompositor, 0, RouteRegBRU, []NodeID{NodeBRUIn(0), NodeBRUIn(1), NodeBRUIn(2), NodeBRUIn(3)}},
	{EntityReadPipe, 0, RouteRegRPF(0), []NodeID{NodeRPF(0)}},
	{EntityReadPipe, 1, RouteRegRPF(1), []NodeID{NodeRPF(1)}},
	{EntityReadPipe, 2, RouteRegRPF(2), []NodeID{NodeRPF(2)}},
	{EntityReadPipe, 3, RouteRegRPF(3), []NodeID{NodeRPF(3)}},
	{EntityScaler, 0, RouteRegUDS(0), []NodeID{NodeUDS(0)}},
	{EntityWritePipe, 0, 0, []NodeID{NodeWPF(0)}},
}

// lookupRoute returns the route of the entity with the given type and index.
func lookupRoute(t EntityType, index int) (*Route, bool) {
	for i := range routes {
		if routes[i].Type == t && routes[i].Index == index {
			return &routes[i], true
		}
	}
	return nil, false
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routes))
	for i, r := range routes {
		r.Inputs = append([]NodeID(nil), r.Inputs...)
		out[i] = r
	}
	return out
}

// String returns a short route description.
func (r Route) String() string {
	return fmt.Sprintf("%s.%d reg=%#x inputs=%v", r.Type, r.Index, uint32(r.Reg), r.Inputs)
}

// setupRoute routes the output of e to the sink pad it drives, or to
// NodeUnused when it drives nothing. Entities without a routing register
// are left alone.
func setupRoute(p *param.Params, e *Entity) {
	if e.route.Reg == 0 {
		return
	}
	sink, pad := e.sink, e.sinkPad
	node := NodeUnused
	if sink != nil && pad < len(sink.route.Inputs) {
		node = sink.route.Inputs[pad]
	}
	p.Routes[uint32(e.route.Reg)] = uint32(node)
}

// clearRoute disconnects the output of e.
func clearRoute(p *param.Params, e *Entity) {
	if e.route.Reg == 0 {
		return
	}
	p.Routes[uint32(e.route.Reg)] = uint32(NodeUnused)
}
