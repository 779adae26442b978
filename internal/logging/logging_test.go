package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "WARN", "error"} {
		log, err := New(level)
		require.NoError(t, err, level)
		require.NotNil(t, log)
	}

	_, err := New("chatty")
	require.Error(t, err)
}
