package main

import (
	"testing"

	"floorplan-studio/internal/common/config"
	"floorplan-studio/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	cfg := &config.Config{
		Port:  "0",
		Store: config.StoreConfig{Backend: "memory", Key: "floorplans-storage"},
		Editor: config.EditorConfig{
			HistoryDepth:   5,
			MaxVersions:    5,
			CheckpointSpec: "every now and then",
			GridSize:       20,
			SnapToGrid:     true,
			CanvasWidth:    1200,
			CanvasHeight:   800,
		},
	}

	err := run(cfg, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every now and then")

	cfg.Store.Backend = "cassandra"
	err = run(cfg, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store backend")
}
