package commands

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandFlags(t *testing.T) {
	cmd := newRunCommand(&app{})
	assert.Equal(t, "run", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	require.NotNil(t, cmd.Flags().Lookup("port"))
	assert.Equal(t, "p", cmd.Flags().Lookup("port").Shorthand)
}

// skipWithoutCgo skips when the sqlite3 driver was built without cgo
func skipWithoutCgo(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "cgo") {
		t.Skip("sqlite3 driver needs cgo")
	}
}

func TestRunCommandShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd, out := newTestCommand(t, shopCatalog(), shopConfig, "run", "--port", "0")
	var logs bytes.Buffer
	cmd.SetErr(&logs)
	go func() {
		time.Sleep(500 * time.Millisecond)
		cancel()
	}()

	err := cmd.ExecuteContext(ctx)
	skipWithoutCgo(t, err)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Serving 1 routes on http://localhost:0/api")
	assert.Contains(t, out.String(), "Shutting down server...")

	opened := strings.Index(logs.String(), "database connections open")
	closed := strings.Index(logs.String(), "database connections closed")
	require.True(t, opened >= 0 && closed >= 0, logs.String())
	assert.Less(t, opened, closed)
}

func TestRunCommandDatabaseUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing", "shop.db")
	config := strings.Replace(shopConfig, `"sqlite::memory:"`, `"sqlite://`+missing+`"`, 1)

	cmd, out := newTestCommand(t, shopCatalog(), config, "run", "--port", "0")
	err := cmd.ExecuteContext(context.Background())
	skipWithoutCgo(t, err)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to default")
	assert.NotContains(t, out.String(), "Serving")
}

func TestRunCommandPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	cmd, _ := newTestCommand(t, shopCatalog(), shopConfig, "run", "--port", strconv.Itoa(port))
	err = cmd.ExecuteContext(context.Background())
	skipWithoutCgo(t, err)
	assert.Error(t, err)
}
