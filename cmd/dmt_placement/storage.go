package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dmt-mods/placement/internal/config"
	"github.com/dmt-mods/placement/internal/storage"
	"github.com/dmt-mods/placement/internal/storage/memory"
	pgstorage "github.com/dmt-mods/placement/internal/storage/postgres"
	sqlitestorage "github.com/dmt-mods/placement/internal/storage/sqlite"
	wsstorage "github.com/dmt-mods/placement/internal/storage/websocket"
)

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(config.GetDBConfig(), uuid.NewString(), Logger.With("component", "storage", "backend", "postgres")), nil

	case "sqlite":
		dumpPath := filepath.Join(ModuleFolder, fmt.Sprintf("%s_%s.db", ExtensionName, SessionStartTime.Format("20060102_150405")))
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
			SessionID:    uuid.NewString(),
		}, Logger.With("component", "storage", "backend", "sqlite"))
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "dumpPath", dumpPath)
		return backend, nil

	case "websocket":
		Logger.Info("WebSocket storage backend initialized", "url", storageCfg.WebSocket.URL)
		return wsstorage.New(wsstorage.Config{
			URL:              storageCfg.WebSocket.URL,
			Secret:           storageCfg.WebSocket.Secret,
			ExtensionVersion: CurrentExtensionVersion,
		}), nil

	case "memory", "":
		memCfg := storageCfg.Memory
		memCfg.OutputDir = resolvePath(memCfg.OutputDir)
		Logger.Info("Memory storage backend initialized", "outputDir", memCfg.OutputDir)
		return memory.New(memCfg), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %q", storageCfg.Type)
	}
}
