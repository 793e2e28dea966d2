package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMCPConfigCmd(t *testing.T) map[string]map[string]mcpServerEntry {
	t.Helper()
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"mcp", "config"})
	require.NoError(t, rootCmd.Execute())

	var cfg map[string]map[string]mcpServerEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &cfg))
	return cfg
}

func TestMCPConfigCmd(t *testing.T) {
	t.Setenv("SERCHA_RAG_HOME", "")

	cfg := runMCPConfigCmd(t)

	entry, ok := cfg["mcpServers"]["sercha-rag"]
	require.True(t, ok)
	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, exe, entry.Command)
	assert.Equal(t, []string{"mcp", "serve"}, entry.Args)
	assert.Empty(t, entry.Env)
}

func TestMCPConfigCmd_CarriesHome(t *testing.T) {
	t.Setenv("SERCHA_RAG_HOME", "/srv/rag")

	cfg := runMCPConfigCmd(t)

	assert.Equal(t, map[string]string{"SERCHA_RAG_HOME": "/srv/rag"}, cfg["mcpServers"]["sercha-rag"].Env)
}

func TestMCPConfigCmd_SkipsBootstrap(t *testing.T) {
	assert.Equal(t, "true", mcpConfigCmd.Annotations[skipBootstrap])
}
