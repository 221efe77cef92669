// Package telemetry holds telemetry adapters that need no external backend.
package telemetry

import (
	"context"
	"io"

	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/remake/internal/core/ports"
)

// NoOp implements ports.Telemetry by discarding everything.
type NoOp struct{}

// NewNoOp creates a NoOp telemetry.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Record returns ctx carrying a vertex that discards its input.
func (*NoOp) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	v := noOpVertex{}
	return ports.ContextWithVertex(ctx, v), v
}

// Watch does nothing.
func (*NoOp) Watch(_ io.Writer) {}

// Close does nothing.
func (*NoOp) Close() error { return nil }

type noOpVertex struct{}

func (noOpVertex) Stdout() io.Writer               { return io.Discard }
func (noOpVertex) Stderr() io.Writer               { return io.Discard }
func (noOpVertex) Log(_ domain.LogLevel, _ string) {}
func (noOpVertex) Complete(_ error)                {}
