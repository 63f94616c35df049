package journal

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
)

// NodeID is the unique identifier for the run journal Graft node.
const NodeID graft.ID = "adapter.journal"

func init() {
	graft.Register(graft.Node[ports.Journal]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Journal, error) {
			return NewStore(domain.DefaultJournalPath()), nil
		},
	})
}
