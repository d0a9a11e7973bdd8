package backend

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/knob/internal/core/ports"
)

// NodeID is the unique identifier for the backend factory Graft node.
const NodeID graft.ID = "adapter.backend_factory"

func init() {
	graft.Register(graft.Node[ports.BackendFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BackendFactory, error) {
			return NewFactory(), nil
		},
	})
}
