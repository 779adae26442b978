// Package trace runs traceroutes and geolocates the hops along the path.
package trace

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// NoResponse marks a hop that did not answer within the wait time
const NoResponse = ""

// Tracer lists the hop addresses on the path to an address
type Tracer interface {
	Trace(ctx context.Context, addr string) ([]string, error)
}

// Runner executes the system traceroute binary
type Runner struct {
	command string
	timeout time.Duration
}

// NewRunner creates a runner for the given traceroute binary
func NewRunner(command string, timeout time.Duration) *Runner {
	return &Runner{command: command, timeout: timeout}
}

// Trace returns one entry per hop, NoResponse for hops that did not answer
func (r *Runner) Trace(ctx context.Context, addr string) ([]string, error) {
	if net.ParseIP(addr) == nil {
		return nil, fmt.Errorf("%w: traceroute target %q is not an IP address", ErrUnresolved, addr)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// numeric output, 2s wait, one probe per hop, 17 probes in flight, at most 17 hops
	cmd := exec.CommandContext(ctx, r.command, "-n", "-w", "2", "-q", "1", "-N", "17", "-m", "17", addr)
	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("traceroute to %s timed out after %s", addr, r.timeout)
		}
		return nil, fmt.Errorf("traceroute to %s failed: %w", addr, err)
	}
	return parseTracerouteOutput(string(output)), nil
}

// parseTracerouteOutput takes the address column of every hop line, skipping the header
func parseTracerouteOutput(output string) []string {
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return nil
	}

	var hops []string
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[1] == "*" {
			hops = append(hops, NoResponse)
			continue
		}
		hops = append(hops, fields[1])
	}
	return hops
}
