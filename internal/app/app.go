// Package app wires the manifest store, the build source loader and the
// executor into the operations exposed by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/remake/internal/core/ports"
	"go.trai.ch/remake/internal/engine/executor"
	"go.trai.ch/zerr"
)

// App is the main application logic.
type App struct {
	manifests ports.ManifestStore
	sources   ports.ConfigLoader
	executor  *executor.Executor
	telemetry ports.Telemetry
	logger    ports.Logger
}

// RunOptions configures a build.
type RunOptions struct {
	// ManifestPath is the compiled manifest to build from.
	ManifestPath string
	// Jobs is the number of workers. Values below one mean one.
	Jobs int
	// Strict rejects manifests that declare a target more than once.
	Strict bool
	// Progress receives a line per finished target. Nil prints nothing.
	Progress io.Writer
}

// New creates a new App.
func New(
	manifests ports.ManifestStore,
	sources ports.ConfigLoader,
	exec *executor.Executor,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *App {
	return &App{
		manifests: manifests,
		sources:   sources,
		executor:  exec,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Run loads the manifest and builds the requested targets.
//
// Failures that were already reported to the logger are returned wrapped in
// domain.ErrBuildExecutionFailed so callers can avoid printing them twice.
func (a *App) Run(ctx context.Context, targets []string, opts RunOptions) error {
	if len(targets) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	m, err := a.manifests.Load(opts.ManifestPath, domain.DecodeOptions{Strict: opts.Strict})
	if err != nil {
		return zerr.Wrap(err, "failed to load manifest")
	}

	if opts.Progress != nil {
		a.telemetry.Watch(opts.Progress)
		defer a.telemetry.Watch(nil)
	}

	report, err := a.executor.Run(ctx, m, targets, opts.Jobs)
	if report == nil {
		return err
	}

	for _, failure := range report.Failures {
		a.logger.Error(failure)
	}
	if err != nil {
		a.logger.Error(err)
	}

	if err != nil || !report.Succeeded() {
		a.logger.Warn(fmt.Sprintf("failed after %d targets, cost %s", len(report.Completed), cost(report.Elapsed)))
		return errors.Join(domain.ErrBuildExecutionFailed, err)
	}

	a.logger.Info(fmt.Sprintf("finished %d targets, cost %s", len(report.Completed), cost(report.Elapsed)))
	return nil
}

// Compile reads a build source and writes it out as a manifest.
func (a *App) Compile(_ context.Context, source, output string) error {
	m, err := a.sources.Load(source)
	if err != nil {
		return zerr.Wrap(err, "failed to compile build source")
	}

	if err := a.manifests.Save(output, m); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write manifest"), "path", output)
	}

	a.logger.Info(fmt.Sprintf("wrote %d targets to %s", m.Len(), output))
	return nil
}

// TargetInfo describes one target of a manifest.
type TargetInfo struct {
	Name         string
	Dependencies []string
	Commands     []string
}

// Listing describes a manifest without building it.
type Listing struct {
	Platform domain.Platform
	Version  uint64
	Digest   uint64
	Targets  []TargetInfo
}

// Targets loads the manifest at path and lists its targets by name. With
// roots, only the roots and what they depend on are listed.
func (a *App) Targets(_ context.Context, path string, roots []string, opts domain.DecodeOptions) (*Listing, error) {
	m, err := a.manifests.Load(path, opts)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load manifest")
	}

	names := m.Names()
	if len(roots) > 0 {
		if names, err = m.Closure(roots); err != nil {
			return nil, zerr.Wrap(err, "failed to list targets")
		}
	}

	listing := &Listing{
		Platform: m.Platform,
		Version:  m.Version,
		Digest:   m.Digest,
		Targets:  make([]TargetInfo, 0, len(names)),
	}
	for _, name := range names {
		t, _ := m.Target(name)
		info := TargetInfo{
			Name:         name,
			Dependencies: domain.Strings(t.Dependencies),
			Commands:     make([]string, 0, len(t.Commands)),
		}
		for _, cmd := range t.Commands {
			info.Commands = append(info.Commands, cmd.String())
		}
		listing.Targets = append(listing.Targets, info)
	}
	return listing, nil
}

// cost renders d the way the run summary reports it, e.g. "2s 35ms".
func cost(d time.Duration) string {
	return fmt.Sprintf("%ds %dms", d/time.Second, (d%time.Second)/time.Millisecond)
}
