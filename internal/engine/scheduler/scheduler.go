// Package scheduler hands build targets to workers in dependency order.
//
// The dependency closure of the requested roots is discovered lazily: a target
// is admitted only when a worker asks for work and nothing already admitted is
// ready. A target is ready once every dependency has been marked done.
package scheduler

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/zerr"
)

// Scheduler coordinates one run over a manifest. It is safe for concurrent use
// and must not be reused across runs.
type Scheduler struct {
	manifest *domain.Manifest

	mu   sync.Mutex
	cond *sync.Cond

	// frontier holds discovered targets not yet admitted, popped LIFO.
	frontier []*domain.Target
	// pending holds admitted targets not yet handed out, in admission order.
	pending   []*domain.Target
	seen      map[domain.InternedString]struct{}
	completed map[domain.InternedString]struct{}
	running   int
	failed    bool
	err       error

	// closed is set once no further target will be handed out.
	closed atomic.Bool
}

// New creates a Scheduler over m. The manifest is only read.
func New(m *domain.Manifest) *Scheduler {
	s := &Scheduler{
		manifest:  m,
		seen:      make(map[domain.InternedString]struct{}),
		completed: make(map[domain.InternedString]struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Seed pushes the root targets onto the frontier. Repeated names are ignored.
// Nothing is seeded when any name is not declared.
func (s *Scheduler) Seed(names []string) error {
	roots := make([]*domain.Target, 0, len(names))
	for _, name := range names {
		t, ok := s.manifest.Target(name)
		if !ok {
			return zerr.With(zerr.Wrap(domain.ErrTargetNotFound, "cannot schedule target"), "target", name)
		}
		roots = append(roots, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range roots {
		if _, ok := s.seen[t.Name]; ok {
			continue
		}
		s.seen[t.Name] = struct{}{}
		s.frontier = append(s.frontier, t)
	}
	return nil
}

// Acquire claims the next ready target. It blocks while other targets are
// running and nothing is ready yet.
//
// A nil result means the caller should stop: the closure has been built, the
// run was aborted, the graph cannot make progress or ctx is done. Err tells
// these apart.
func (s *Scheduler) Acquire(ctx context.Context) *domain.Target {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cond.Broadcast()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.closed.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			s.closeLocked(zerr.Wrap(err, "run cancelled"))
			return nil
		}

		if t := s.claimLocked(); t != nil {
			s.running++
			return t
		}

		if len(s.frontier) > 0 {
			if err := s.expandLocked(); err != nil {
				s.closeLocked(err)
				return nil
			}
			continue
		}

		if s.running > 0 {
			s.cond.Wait()
			continue
		}

		if len(s.pending) > 0 {
			s.closeLocked(blockedError(s.pending))
			return nil
		}

		s.closeLocked(nil)
		return nil
	}
}

// MarkDone records that every command of the named target succeeded.
func (s *Scheduler) MarkDone(name domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed[name] = struct{}{}
	s.running--
	s.cond.Broadcast()
}

// SignalFailure stops dispatch. Targets already handed out keep running.
func (s *Scheduler) SignalFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed = true
	s.closeLocked(nil)
}

// IsFinished reports whether no further target will be handed out.
func (s *Scheduler) IsFinished() bool {
	return s.closed.Load()
}

// Aborted reports whether the run stopped early, through SignalFailure or a
// scheduling error.
func (s *Scheduler) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed || s.err != nil
}

// Err returns the scheduling error that closed the scheduler, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Completed returns the number of targets marked done.
func (s *Scheduler) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

func (s *Scheduler) closeLocked(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
	s.closed.Store(true)
	s.cond.Broadcast()
}

// claimLocked removes and returns the most recently admitted ready target.
func (s *Scheduler) claimLocked() *domain.Target {
	for i := len(s.pending) - 1; i >= 0; i-- {
		t := s.pending[i]
		if s.readyLocked(t) {
			s.pending = slices.Delete(s.pending, i, i+1)
			return t
		}
	}
	return nil
}

func (s *Scheduler) readyLocked(t *domain.Target) bool {
	for _, dep := range t.Dependencies {
		if _, ok := s.completed[dep]; !ok {
			return false
		}
	}
	return true
}

// expandLocked admits the top of the frontier and pushes its unseen dependencies.
func (s *Scheduler) expandLocked() error {
	t := s.frontier[len(s.frontier)-1]
	s.frontier = s.frontier[:len(s.frontier)-1]
	s.pending = append(s.pending, t)

	for _, dep := range t.Dependencies {
		if _, ok := s.seen[dep]; ok {
			continue
		}
		next, ok := s.manifest.Targets[dep]
		if !ok {
			err := zerr.Wrap(domain.ErrMissingDependency, "cannot schedule target")
			return zerr.With(zerr.With(err, "target", t.Name.String()), "dependency", dep.String())
		}
		s.seen[dep] = struct{}{}
		s.frontier = append(s.frontier, next)
	}
	return nil
}

func blockedError(pending []*domain.Target) error {
	names := make([]string, 0, len(pending))
	for _, t := range pending {
		names = append(names, t.Name.String())
	}
	slices.Sort(names)

	err := zerr.Wrap(domain.ErrUnsatisfiableGraph, "targets are waiting on each other")
	return zerr.With(err, "blocked", strings.Join(names, ", "))
}
