package migration

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/knob/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/knob/internal/adapters/observer"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/knob/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/knob/internal/core/ports"
)

// NodeID is the unique identifier for the migration runner Graft node.
const NodeID graft.ID = "engine.migration"

func init() {
	graft.Register(graft.Node[*Runner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			telemetry.TracerNodeID,
			observer.NodeID,
		},
		Run: func(ctx context.Context) (*Runner, error) {
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

			return NewRunner(log, tracer, obs), nil
		},
	})
}
