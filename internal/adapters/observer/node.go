package observer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/knob/internal/adapters/logger"
	"go.trai.ch/knob/internal/core/ports"
)

// NodeID is the unique identifier for the observer Graft node.
const NodeID graft.ID = "adapter.observer"

func init() {
	graft.Register(graft.Node[ports.Observer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Observer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewMulti(NewPrometheusObserver("knob"), NewLogObserver(log)), nil
		},
	})
}
