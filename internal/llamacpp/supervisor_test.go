package llamacpp

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSupervisor_EnsureSkipsWhenAlreadyRunning tests that an answering
// server short-circuits the spawn entirely.
func TestSupervisor_EnsureSkipsWhenAlreadyRunning(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	host, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	supervisor := NewSupervisor(Options{
		Bin:  "definitely-not-a-real-binary",
		Host: host,
		Port: port,
	})

	err = supervisor.Ensure(context.Background())
	require.NoError(t, err, "a running server means no spawn is attempted")
	assert.Equal(t, ts.URL+"/v1", supervisor.BaseURL())
}

// TestSupervisor_EnsureFailsWithoutBinary tests the error when nothing
// is listening and the binary cannot be found.
func TestSupervisor_EnsureFailsWithoutBinary(t *testing.T) {
	supervisor := NewSupervisor(Options{
		Bin:          "definitely-not-a-real-binary",
		Port:         freePort(t),
		StartTimeout: time.Second,
	})

	err := supervisor.Ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// TestSupervisor_StopWithoutStartIsNoop tests that Stop is safe on an
// unstarted supervisor.
func TestSupervisor_StopWithoutStartIsNoop(t *testing.T) {
	supervisor := NewSupervisor(Options{Bin: "x", Port: freePort(t)})
	supervisor.Stop()
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
