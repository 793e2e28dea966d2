package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "http://localhost:8000", displayAddr(""))
	assert.Equal(t, "http://localhost:9090", displayAddr(":9090"))
	assert.Equal(t, "http://127.0.0.1:8000", displayAddr("127.0.0.1:8000"))
}

func TestServeCmd_Flags(t *testing.T) {
	require.NotNil(t, serveCmd.Flags().Lookup("addr"))
	require.NotNil(t, serveCmd.Flags().Lookup("mcp-port"))
}

func TestServeCmd_ServiceNotConfigured(t *testing.T) {
	SetServices(nil)
	defer resetFlags(rootCmd)

	_, err := execute("serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestMCPServeCmd_RequiresQueryService(t *testing.T) {
	SetServices(nil)
	defer resetFlags(rootCmd)

	_, err := execute("mcp", "serve")

	require.Error(t, err)
}
