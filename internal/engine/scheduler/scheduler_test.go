package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/remake/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// graph builds a manifest from "name: dep dep" style entries.
func graph(t *testing.T, edges map[string][]string) *domain.Manifest {
	t.Helper()
	m := domain.NewManifest(domain.PlatformUnix, 1)
	for name, deps := range edges {
		m.Add(&domain.Target{
			Name:         domain.NewInternedString(name),
			Dependencies: domain.NewInternedStrings(deps),
		})
	}
	return m
}

// drain runs the scheduler on a single goroutine and returns the build order.
func drain(t *testing.T, s *scheduler.Scheduler) []string {
	t.Helper()
	var order []string
	for {
		target := s.Acquire(context.Background())
		if target == nil {
			return order
		}
		order = append(order, target.Name.String())
		s.MarkDone(target.Name)
	}
}

func TestScheduler_LinearChain(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	}))
	require.NoError(t, s.Seed([]string{"a"}))

	assert.Equal(t, []string{"c", "b", "a"}, drain(t, s))
	assert.True(t, s.IsFinished())
	assert.False(t, s.Aborted())
	assert.NoError(t, s.Err())
	assert.Equal(t, 3, s.Completed())
}

func TestScheduler_DiamondRunsSharedDependencyOnce(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
		"d": nil,
	}))
	require.NoError(t, s.Seed([]string{"a"}))

	order := drain(t, s)
	require.Len(t, order, 4)
	assert.Equal(t, "d", order[0])
	assert.Equal(t, "a", order[3])
	assert.ElementsMatch(t, []string{"b", "c"}, order[1:3])
}

func TestScheduler_OnlyClosureIsBuilt(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{
		"app":  {"lib"},
		"lib":  nil,
		"docs": nil,
	}))
	require.NoError(t, s.Seed([]string{"app"}))

	assert.Equal(t, []string{"lib", "app"}, drain(t, s))
}

func TestScheduler_RepeatedRoots(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{
		"a": {"b"},
		"b": nil,
	}))
	require.NoError(t, s.Seed([]string{"a", "b", "a"}))

	assert.ElementsMatch(t, []string{"a", "b"}, drain(t, s))
}

func TestScheduler_NoRoots(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{"a": nil}))
	require.NoError(t, s.Seed(nil))

	assert.Nil(t, s.Acquire(context.Background()))
	assert.True(t, s.IsFinished())
	assert.NoError(t, s.Err())
}

func TestScheduler_SeedUnknownTarget(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{"a": nil}))

	err := s.Seed([]string{"a", "ghost"})
	require.ErrorIs(t, err, domain.ErrTargetNotFound)

	assert.Empty(t, drain(t, s), "a failed seed admits nothing")
}

func TestScheduler_MissingDependency(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{"x": {"y"}}))
	require.NoError(t, s.Seed([]string{"x"}))

	assert.Nil(t, s.Acquire(context.Background()))
	assert.True(t, s.IsFinished())
	assert.True(t, s.Aborted())

	err := s.Err()
	require.ErrorIs(t, err, domain.ErrMissingDependency)
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "x", zErr.Metadata()["target"])
	assert.Equal(t, "y", zErr.Metadata()["dependency"])
}

func TestScheduler_CycleTerminates(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}))
	require.NoError(t, s.Seed([]string{"a"}))

	assert.Empty(t, drain(t, s))
	require.ErrorIs(t, s.Err(), domain.ErrUnsatisfiableGraph)

	var zErr *zerr.Error
	require.ErrorAs(t, s.Err(), &zErr)
	assert.Equal(t, "a, b", zErr.Metadata()["blocked"])
}

func TestScheduler_SelfDependency(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{"a": {"a"}}))
	require.NoError(t, s.Seed([]string{"a"}))

	assert.Empty(t, drain(t, s))
	assert.ErrorIs(t, s.Err(), domain.ErrUnsatisfiableGraph)
}

func TestScheduler_CycleBesideBuildableTarget(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{
		"ok": nil,
		"a":  {"b"},
		"b":  {"a"},
	}))
	require.NoError(t, s.Seed([]string{"a", "ok"}))

	assert.Equal(t, []string{"ok"}, drain(t, s))
	assert.ErrorIs(t, s.Err(), domain.ErrUnsatisfiableGraph)
}

func TestScheduler_SignalFailureStopsDispatch(t *testing.T) {
	s := scheduler.New(graph(t, map[string][]string{
		"a": nil,
		"b": nil,
	}))
	require.NoError(t, s.Seed([]string{"a", "b"}))

	first := s.Acquire(context.Background())
	require.NotNil(t, first)

	s.SignalFailure()

	assert.Nil(t, s.Acquire(context.Background()))
	assert.True(t, s.IsFinished())
	assert.True(t, s.Aborted())
	assert.NoError(t, s.Err(), "a command failure is not a scheduling error")
}

func TestScheduler_AcquireWaitsForRunningDependency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scheduler.New(graph(t, map[string][]string{
			"a": {"b"},
			"b": nil,
		}))
		require.NoError(t, s.Seed([]string{"a"}))

		b := s.Acquire(context.Background())
		require.NotNil(t, b)
		require.Equal(t, "b", b.Name.String())

		got := make(chan *domain.Target, 1)
		go func() { got <- s.Acquire(context.Background()) }()

		synctest.Wait()
		select {
		case <-got:
			t.Fatal("Acquire returned while b was still running")
		default:
		}
		assert.False(t, s.IsFinished())

		s.MarkDone(b.Name)

		a := <-got
		require.NotNil(t, a)
		assert.Equal(t, "a", a.Name.String())
	})
}

func TestScheduler_FailureWakesWaiters(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scheduler.New(graph(t, map[string][]string{
			"a": {"b"},
			"b": nil,
		}))
		require.NoError(t, s.Seed([]string{"a"}))
		require.NotNil(t, s.Acquire(context.Background()))

		got := make(chan *domain.Target, 1)
		go func() { got <- s.Acquire(context.Background()) }()
		synctest.Wait()

		s.SignalFailure()

		assert.Nil(t, <-got)
	})
}

func TestScheduler_CancelWakesWaiters(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scheduler.New(graph(t, map[string][]string{
			"a": {"b"},
			"b": nil,
		}))
		require.NoError(t, s.Seed([]string{"a"}))
		require.NotNil(t, s.Acquire(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		got := make(chan *domain.Target, 1)
		go func() { got <- s.Acquire(ctx) }()
		synctest.Wait()

		cancel()

		assert.Nil(t, <-got)
		assert.True(t, errors.Is(s.Err(), context.Canceled))
	})
}

func TestScheduler_ConcurrentWorkers(t *testing.T) {
	const (
		layers  = 6
		width   = 8
		workers = 5
	)

	// Every target in layer i depends on two targets of layer i+1.
	edges := make(map[string][]string)
	for l := range layers {
		for w := range width {
			name := fmt.Sprintf("t%d_%d", l, w)
			if l == layers-1 {
				edges[name] = nil
				continue
			}
			edges[name] = []string{
				fmt.Sprintf("t%d_%d", l+1, w),
				fmt.Sprintf("t%d_%d", l+1, (w+1)%width),
			}
		}
	}
	m := graph(t, edges)

	roots := make([]string, 0, width)
	for w := range width {
		roots = append(roots, fmt.Sprintf("t0_%d", w))
	}

	s := scheduler.New(m)
	require.NoError(t, s.Seed(roots))

	var (
		mu       sync.Mutex
		done     = make(map[string]bool)
		acquired = make(map[string]int)
		wg       sync.WaitGroup
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				target := s.Acquire(context.Background())
				if target == nil {
					return
				}

				mu.Lock()
				acquired[target.Name.String()]++
				for _, dep := range target.Dependencies {
					assert.True(t, done[dep.String()], "%s acquired before %s finished", target.Name, dep)
				}
				done[target.Name.String()] = true
				mu.Unlock()

				s.MarkDone(target.Name)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, s.Err())
	assert.Len(t, acquired, layers*width)
	for name, n := range acquired {
		assert.Equal(t, 1, n, "%s acquired %d times", name, n)
	}
}
