// Package transport defines the connection contract shared by the
// in-memory channel and the HTTP server that consumes it.
package transport

import "net"

// Addr names one end of an in-memory connection.
type Addr struct {
	Name string
}

func (a Addr) Network() string { return "pipe" }
func (a Addr) String() string  { return a.Name }

var _ net.Addr = Addr{}
