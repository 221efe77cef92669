// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/remake/internal/adapters/config"
	_ "go.trai.ch/remake/internal/adapters/logger"
	_ "go.trai.ch/remake/internal/adapters/manifest"
	_ "go.trai.ch/remake/internal/adapters/shell"
	_ "go.trai.ch/remake/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/remake/internal/app"
	_ "go.trai.ch/remake/internal/engine/executor"
)
