package progrock

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vito/progrock"
)

// Progress is a progrock.Writer that prints one line per finished vertex.
// Log output is not retained.
type Progress struct {
	mu       sync.Mutex
	out      io.Writer
	finished map[string]struct{}
}

// NewProgress creates a Progress that prints nothing until SetOutput is called.
func NewProgress() *Progress {
	return &Progress{
		out:      io.Discard,
		finished: make(map[string]struct{}),
	}
}

// SetOutput directs the finished lines to w. A nil w discards them.
func (p *Progress) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
}

// WriteStatus prints the vertices of update that completed for the first time.
func (p *Progress) WriteStatus(update *progrock.StatusUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range update.Vertexes {
		if v.Completed == nil {
			continue
		}
		if _, ok := p.finished[v.Id]; ok {
			continue
		}
		p.finished[v.Id] = struct{}{}

		if _, err := io.WriteString(p.out, line(v)); err != nil {
			return err
		}
	}
	return nil
}

// Close does nothing; the output belongs to the caller.
func (p *Progress) Close() error {
	return nil
}

// line renders v as "✓ name 12ms" or "✗ name 12ms".
func line(v *progrock.Vertex) string {
	icon := "✓"
	if v.Error != nil || v.Canceled {
		icon = "✗"
	}

	if v.Started == nil {
		return fmt.Sprintf("%s %s\n", icon, v.Name)
	}
	took := v.Completed.AsTime().Sub(v.Started.AsTime()).Round(time.Millisecond)
	return fmt.Sprintf("%s %s %s\n", icon, v.Name, took)
}
