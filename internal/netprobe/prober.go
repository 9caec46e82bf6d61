// Package netprobe implements the connectivity gate: a bounded-time
// transport-level reachability check that never fails past its boundary.
package netprobe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/gitrepo"
)

const (
	tcpNetworkNameConstant      = "tcp"
	defaultProbeTimeoutConstant = 2 * time.Second
)

// Dialer abstracts transport-level connection establishment for testing.
type Dialer interface {
	DialContext(dialContext context.Context, network string, address string) (net.Conn, error)
}

// Prober answers reachability questions about remote endpoints.
type Prober struct {
	dialer  Dialer
	timeout time.Duration
}

// NewProber constructs a Prober using the supplied dialer and timeout.
// A nil dialer selects the operating system dialer; a non-positive timeout
// selects the default probe timeout.
func NewProber(dialer Dialer, timeout time.Duration) *Prober {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeoutConstant
	}
	return &Prober{dialer: dialer, timeout: timeout}
}

// Reachable reports whether the endpoint accepts a transport connection within
// the probe timeout. Resolution failures, refusals, and timeouts all collapse
// to false; no error escapes this boundary.
func (prober *Prober) Reachable(probeContext context.Context, endpoint gitrepo.ProbeEndpoint) bool {
	if len(endpoint.Host) == 0 || endpoint.Port <= 0 {
		return false
	}

	boundedContext, cancelProbe := context.WithTimeout(probeContext, prober.timeout)
	defer cancelProbe()

	probeAddress := net.JoinHostPort(endpoint.Host, strconv.Itoa(endpoint.Port))
	connection, dialError := prober.dialer.DialContext(boundedContext, tcpNetworkNameConstant, probeAddress)
	if dialError != nil {
		return false
	}

	_ = connection.Close()
	return true
}
