// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/devtools"
	"github.com/xkilldash9x/lancet-cli/internal/devtools/cdp"
	"github.com/xkilldash9x/lancet-cli/internal/devtools/rdp"
	"github.com/xkilldash9x/lancet-cli/internal/observability"
)

// resetForTest silences the global logger and keeps Viper from picking up
// a stray config.yaml in the working directory.
func resetForTest(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	observability.InitializeLogger(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"})
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCommand()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	resetForTest(t)

	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestRootCmd_NoArgs(t *testing.T) {
	resetForTest(t)

	out, err := executeCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "remote-debugging endpoint")
}

func TestRootCmd_InvalidProtocolRejected(t *testing.T) {
	resetForTest(t)

	_, err := executeCommand(t, "identify", "--protocol", "gopher")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown client.protocol")
}

func TestRootCmd_NoEndpointSurfacesDiscoveryError(t *testing.T) {
	resetForTest(t)

	// Nothing listens on this port; the probe fails fast on loopback.
	_, err := executeCommand(t, "identify",
		"--protocol", "chrome", "--host", "127.0.0.1", "--port", "9399",
		"--timeout", "2s")
	require.Error(t, err)
	assert.ErrorIs(t, err, devtools.ErrNoEndpoint)
}

func TestNewDevToolsClient_SelectsProtocol(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.ClientConfig{
		Protocol:         "chrome",
		Host:             "localhost",
		CommandTimeout:   time.Second,
		DiscoveryTimeout: time.Second,
	}

	assert.IsType(t, &cdp.Client{}, newDevToolsClient(cfg, logger))

	cfg.Protocol = "edge"
	assert.IsType(t, &cdp.Client{}, newDevToolsClient(cfg, logger))

	cfg.Protocol = "firefox"
	assert.IsType(t, &rdp.Client{}, newDevToolsClient(cfg, logger))
}
