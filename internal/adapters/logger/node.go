package logger

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/remake/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

// FormatEnv selects the log format. "json" switches to JSON lines.
const FormatEnv = "REMAKE_LOG_FORMAT"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			l := New()
			l.SetJSON(os.Getenv(FormatEnv) == "json")
			return l, nil
		},
	})
}
