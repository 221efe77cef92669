// Package progrock records per-target progress with vito/progrock.
package progrock

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/remake/internal/core/ports"
)

// Recorder implements ports.Telemetry on a progrock recorder.
type Recorder struct {
	progress *Progress
	rec      *progrock.Recorder

	mu   sync.Mutex
	runs map[string]int
}

// New creates a Recorder whose only writer is its progress printer.
func New() *Recorder {
	return NewRecorder(progrock.Discard{})
}

// NewRecorder creates a Recorder that also sends every status update to w.
func NewRecorder(w progrock.Writer) *Recorder {
	progress := NewProgress()
	return &Recorder{
		progress: progress,
		rec:      progrock.NewRecorder(progrock.MultiWriter{progress, w}),
		runs:     make(map[string]int),
	}
}

// Record starts a vertex for the target called name.
// Recording the same name again in a later run yields a distinct vertex.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := &Vertex{vertex: r.rec.Vertex(r.digest(name), name)}
	return ports.ContextWithVertex(ctx, v), v
}

// Watch prints a line to w for each target that finishes from now on.
func (r *Recorder) Watch(w io.Writer) {
	r.progress.SetOutput(w)
}

func (r *Recorder) digest(name string) digest.Digest {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.runs[name]
	r.runs[name] = n + 1
	return digest.FromString(fmt.Sprintf("%s/%d", name, n))
}

// Close completes the recording session and closes its writers.
func (r *Recorder) Close() error {
	r.rec.Complete()
	return r.rec.Close()
}
