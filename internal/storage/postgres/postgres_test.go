package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/storage"
	"github.com/dmt-mods/placement/pkg/core"
)

var (
	_ storage.Backend = (*Backend)(nil)
	_ storage.Flusher = (*Backend)(nil)
)

func TestUninitialized(t *testing.T) {
	b := New(config.DBConfig{}, "s", nil)

	_, err := b.AddMapTack(&core.MapTack{})
	assert.ErrorIs(t, err, errNotInitialized)

	_, err = b.ListMapTacks()
	assert.ErrorIs(t, err, errNotInitialized)

	assert.NoError(t, b.Flush())
	assert.NoError(t, b.Close())
}

func TestInit_Unreachable(t *testing.T) {
	b := New(config.DBConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "postgres",
		Password: "postgres",
		Database: "maptacks",
	}, "s", nil)

	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to postgres")
}
