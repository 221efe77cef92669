// Package executor builds targets on a fixed pool of workers.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/remake/internal/core/ports"
	"go.trai.ch/remake/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Report summarises a run.
type Report struct {
	// Failures lists every command failure that was not ignorable, in the order observed.
	Failures []*domain.RuntimeError
	// Completed lists the targets whose commands all succeeded, in completion order.
	Completed []string
	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Succeeded reports whether the run finished without any failure.
func (r *Report) Succeeded() bool {
	return len(r.Failures) == 0
}

// Executor runs the dependency closure of requested targets.
type Executor struct {
	runner    ports.CommandRunner
	logger    ports.Logger
	telemetry ports.Telemetry
}

// New creates an Executor.
func New(runner ports.CommandRunner, logger ports.Logger, telemetry ports.Telemetry) *Executor {
	return &Executor{
		runner:    runner,
		logger:    logger,
		telemetry: telemetry,
	}
}

// Run builds roots and everything they depend on with jobs workers.
//
// Command failures do not make Run return an error; they are collected in the
// report and stop further dispatch. The returned error is reserved for
// scheduling problems: unknown roots, undeclared dependencies, cycles and
// cancellation of ctx. A scheduling problem cancels the commands still running.
func (e *Executor) Run(ctx context.Context, m *domain.Manifest, roots []string, jobs int) (*Report, error) {
	jobs = max(jobs, 1)

	sched := scheduler.New(m)
	if err := sched.Seed(roots); err != nil {
		return nil, err
	}

	r := &run{
		Executor: e,
		sched:    sched,
		report:   &Report{},
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for id := range jobs {
		g.Go(func() error {
			return r.work(gctx, id)
		})
	}
	err := g.Wait()
	r.report.Elapsed = time.Since(start)

	if err != nil {
		return r.report, zerr.Wrap(err, "failed to schedule targets")
	}
	return r.report, nil
}

// run is the state shared by the workers of one Run.
type run struct {
	*Executor
	sched *scheduler.Scheduler

	mu     sync.Mutex
	report *Report
}

// work builds targets until the scheduler closes. It returns the scheduling
// error that closed it, if any.
func (r *run) work(ctx context.Context, id int) error {
	for {
		target := r.sched.Acquire(ctx)
		if target == nil {
			return r.sched.Err()
		}

		r.logger.Info(fmt.Sprintf("[%d] building %s", id, target.Name))
		if failure := r.build(ctx, target); failure != nil {
			r.fail(failure)
			continue
		}

		r.mu.Lock()
		r.report.Completed = append(r.report.Completed, target.Name.String())
		r.mu.Unlock()
		r.sched.MarkDone(target.Name)
	}
}

// build runs the commands of target in order and returns the first failure
// that cannot be ignored.
func (r *run) build(ctx context.Context, target *domain.Target) *domain.RuntimeError {
	ctx, vertex := r.telemetry.Record(ctx, target.Name.String())

	for _, cmd := range target.Commands {
		err := r.runner.Run(ctx, cmd, vertex.Stdout(), vertex.Stderr())
		if err == nil {
			continue
		}

		failure := asRuntimeError(cmd, err)
		failure.Target = target.Name.String()

		if cmd.IgnoreError && errors.Is(failure, domain.ErrCommandExit) {
			vertex.Log(domain.LogLevelWarn, failure.Error())
			r.logger.Warn(fmt.Sprintf("%s (ignored)", failure))
			continue
		}

		vertex.Complete(failure)
		return failure
	}

	vertex.Complete(nil)
	return nil
}

func (r *run) fail(failure *domain.RuntimeError) {
	r.mu.Lock()
	r.report.Failures = append(r.report.Failures, failure)
	r.mu.Unlock()

	r.sched.SignalFailure()
}

func asRuntimeError(cmd *domain.Command, err error) *domain.RuntimeError {
	var rErr *domain.RuntimeError
	if errors.As(err, &rErr) {
		return rErr
	}
	return &domain.RuntimeError{
		Command:  cmd.String(),
		Reason:   err.Error(),
		Kind:     domain.ErrCommandStart,
		Cause:    err,
		ExitCode: -1,
	}
}
