package trace

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTracerouteOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []string
	}{
		{
			name: "linux numeric output",
			output: `traceroute to 8.8.8.8 (8.8.8.8), 17 hops max, 60 byte packets
 1  192.168.1.1  0.512 ms
 2  * 
 3  10.20.0.1  8.113 ms
 4  8.8.8.8  12.940 ms
`,
			expected: []string{"192.168.1.1", NoResponse, "10.20.0.1", "8.8.8.8"},
		},
		{
			name:     "header only",
			output:   "traceroute to 127.0.0.1 (127.0.0.1), 17 hops max, 60 byte packets\n",
			expected: nil,
		},
		{
			name:     "empty output",
			output:   "",
			expected: nil,
		},
		{
			name: "double digit hops",
			output: `traceroute to 1.1.1.1 (1.1.1.1), 17 hops max, 60 byte packets
 9  *
10  1.1.1.1  20.1 ms`,
			expected: []string{NoResponse, "1.1.1.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, parseTracerouteOutput(tt.output))
		})
	}
}

func TestRunnerTrace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping traceroute integration test in short mode")
	}

	if _, err := exec.LookPath("traceroute"); err != nil {
		t.Skip("traceroute binary not available on PATH")
	}

	runner := NewRunner("traceroute", 30*time.Second)
	hops, err := runner.Trace(context.Background(), "127.0.0.1")
	if err != nil {
		t.Skipf("skipping due to unexpected traceroute failure: %v", err)
	}
	require.NotEmpty(t, hops)
	require.Equal(t, "127.0.0.1", hops[len(hops)-1])
}

func TestRunnerMissingBinary(t *testing.T) {
	runner := NewRunner("traceroute-does-not-exist", time.Second)
	_, err := runner.Trace(context.Background(), "127.0.0.1")
	require.Error(t, err)
}

func TestRunnerRejectsNonAddress(t *testing.T) {
	runner := NewRunner("traceroute", time.Second)
	for _, addr := range []string{"--version", "-I", "example.com", ""} {
		_, err := runner.Trace(context.Background(), addr)
		require.ErrorIs(t, err, ErrUnresolved, addr)
	}
}
