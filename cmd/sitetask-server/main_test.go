package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/store"
	"github.com/existflow/sitetask/server"
)

func TestDefaultTimezoneWithoutZoneinfo(t *testing.T) {
	// an empty ZONEINFO leaves the embedded database as the reliable source
	t.Setenv("ZONEINFO", t.TempDir())

	cfg := config.DefaultServerConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Istanbul", loc.String())
}

func TestOpenMemoryStore(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.Store = "memory"

	st, err := openStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)

	srv, err := server.New(cfg, st)
	require.NoError(t, err)
	assert.NoError(t, srv.Close())
}
