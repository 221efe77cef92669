// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/remake/internal/core/domain"
)

// CommandRunner spawns a single command and waits for it to exit.
//
//go:generate mockgen -source=command_runner.go -destination=mocks/mock_command_runner.go -package=mocks
type CommandRunner interface {
	// Run executes cmd, streaming its output to stdout and stderr.
	//
	// A process that cannot be spawned yields a *domain.RuntimeError of kind
	// domain.ErrCommandStart; a non-zero exit yields one of kind domain.ErrCommandExit;
	// a process killed by a signal yields one of kind domain.ErrCommandTerminated.
	Run(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error
}
