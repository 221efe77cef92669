package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/remake/cmd/remake/commands"
	"go.trai.ch/remake/internal/app"
	"go.trai.ch/remake/internal/build"
	"go.trai.ch/remake/internal/core/domain"
)

type mockApp struct {
	runFunc     func(ctx context.Context, targetNames []string, opts app.RunOptions) error
	compileFunc func(ctx context.Context, source, output string) error
	targetsFunc func(ctx context.Context, path string, roots []string, opts domain.DecodeOptions) (*app.Listing, error)
}

func (m *mockApp) Run(ctx context.Context, targetNames []string, opts app.RunOptions) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, targetNames, opts)
	}
	return nil
}

func (m *mockApp) Compile(ctx context.Context, source, output string) error {
	if m.compileFunc != nil {
		return m.compileFunc(ctx, source, output)
	}
	return nil
}

func (m *mockApp) Targets(ctx context.Context, path string, roots []string, opts domain.DecodeOptions) (*app.Listing, error) {
	if m.targetsFunc != nil {
		return m.targetsFunc(ctx, path, roots, opts)
	}
	return &app.Listing{}, nil
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.RunOptions
		var capturedTargets []string
		called := false

		mock := &mockApp{
			runFunc: func(_ context.Context, targetNames []string, opts app.RunOptions) error {
				capturedOpts = opts
				capturedTargets = targetNames
				called = true
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "-f", "out/app.remake", "-t", "lib", "--target", "test", "-j", "4", "--strict", "app"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, app.RunOptions{ManifestPath: "out/app.remake", Jobs: 4, Strict: true}, capturedOpts)
		assert.Equal(t, []string{"lib", "test", "app"}, capturedTargets)
	})

	t.Run("defaults", func(t *testing.T) {
		var capturedOpts app.RunOptions

		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, opts app.RunOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "all"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, commands.DefaultManifest, capturedOpts.ManifestPath)
		assert.Equal(t, 1, capturedOpts.Jobs)
		assert.False(t, capturedOpts.Strict)
		assert.Nil(t, capturedOpts.Progress)
	})

	t.Run("progress goes to stderr", func(t *testing.T) {
		var capturedOpts app.RunOptions

		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, opts app.RunOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		stderr := new(bytes.Buffer)
		cli.SetOutput(new(bytes.Buffer), stderr)
		cli.SetArgs([]string{"run", "--progress", "all"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Same(t, stderr, capturedOpts.Progress)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, _ app.RunOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "target"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage when no targets provided", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, _ app.RunOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"run"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Usage:")
	})
}

func TestCommands_Compile(t *testing.T) {
	t.Run("passes source and output", func(t *testing.T) {
		var source, output string
		mock := &mockApp{
			compileFunc: func(_ context.Context, s, o string) error {
				source, output = s, o
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"compile", "remake.yaml", "-o", "out.remake"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "remake.yaml", source)
		assert.Equal(t, "out.remake", output)
	})

	t.Run("requires a source", func(t *testing.T) {
		cli := commands.New(&mockApp{})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"compile"})

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Targets(t *testing.T) {
	var capturedPath string
	var capturedRoots []string
	var capturedOpts domain.DecodeOptions
	mock := &mockApp{
		targetsFunc: func(_ context.Context, path string, roots []string, opts domain.DecodeOptions) (*app.Listing, error) {
			capturedPath, capturedRoots, capturedOpts = path, roots, opts
			return &app.Listing{
				Platform: domain.PlatformUnix,
				Version:  1,
				Digest:   0xab,
				Targets: []app.TargetInfo{
					{Name: "app", Dependencies: []string{"lib", "gen"}, Commands: []string{"ld -o app"}},
					{Name: "lib", Commands: []string{"cc -c lib.c"}},
				},
			}, nil
		},
	}

	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"targets", "-f", "x.remake", "--strict", "-v", "app"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "x.remake", capturedPath)
	assert.Equal(t, []string{"app"}, capturedRoots)
	assert.True(t, capturedOpts.Strict)
	assert.Equal(t,
		"# unix v1 digest 00000000000000ab\n"+
			"app: lib gen\n\tld -o app\n"+
			"lib\n\tcc -c lib.c\n",
		buf.String())
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), build.Version)
	assert.Contains(t, buf.String(), "manifest format 1")
}
