package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/knob/internal/adapters/backend"   //nolint:depguard // Wired in app layer
	"go.trai.ch/knob/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/knob/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/knob/internal/adapters/observer"  //nolint:depguard // Wired in app layer
	"go.trai.ch/knob/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/knob/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/knob/internal/engine/migration"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			backend.NodeID,
			migration.NodeID,
			watcher.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			observer.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	backends, err := graft.Dep[ports.BackendFactory](ctx)
	if err != nil {
		return nil, err
	}

	runner, err := graft.Dep[*migration.Runner](ctx)
	if err != nil {
		return nil, err
	}

	fileWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	obs, err := graft.Dep[ports.Observer](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, backends, runner, fileWatcher, log, tracer, obs), nil
}
