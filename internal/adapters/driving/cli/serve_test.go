package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
	assert.Contains(t, serveCmd.Long, "POST /search")
}

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestServeCmd_RequiresSearch(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	services.Search = nil

	_, err := execute(t, "", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}
