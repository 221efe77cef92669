// Package config compiles YAML build sources into manifests.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/remake/internal/build"
	"go.trai.ch/remake/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader for Remakefile sources.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the build source at path and returns the equivalent manifest.
// Relative working directories are resolved against the directory of path.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read build source"), "path", path)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve build source directory")
	}

	m, err := Parse(data, base)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}

// Parse compiles YAML source. base anchors relative working directories.
func Parse(data []byte, base string) (*domain.Manifest, error) {
	var src Remakefile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(err, "failed to parse build source")
	}

	platform := domain.HostPlatform()
	if src.Platform != "" {
		p, ok := domain.ParsePlatform(src.Platform)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidSource, "unknown platform"), "platform", src.Platform)
		}
		platform = p
	}

	m := domain.NewManifest(platform, build.MajorVersion)
	for name, dto := range src.Targets {
		t, err := compileTarget(name, dto, base)
		if err != nil {
			return nil, err
		}
		m.Add(t)
	}

	if _, err := m.Validate(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrInvalidSource.Error())
	}
	return m, nil
}

func compileTarget(name string, dto TargetDTO, base string) (*domain.Target, error) {
	if name == "" {
		return nil, zerr.Wrap(domain.ErrInvalidSource, "target name is empty")
	}

	t := &domain.Target{
		Name:         domain.NewInternedString(name),
		Dependencies: domain.NewInternedStrings(dto.DependsOn),
		Commands:     make([]*domain.Command, 0, len(dto.Commands)),
	}

	for i, c := range dto.Commands {
		if len(c.Cmd) == 0 || c.Cmd[0] == "" {
			err := zerr.Wrap(domain.ErrEmptyCommand, domain.ErrInvalidSource.Error())
			return nil, zerr.With(zerr.With(err, "target", name), "command", i)
		}

		wd := c.WorkingDir
		if wd != "" && !filepath.IsAbs(wd) {
			wd = filepath.Join(base, wd)
		}

		t.Commands = append(t.Commands, &domain.Command{
			Executable:  c.Cmd[0],
			Arguments:   c.Cmd[1:],
			IgnoreError: c.IgnoreError,
			Environment: c.Environment,
			WorkingDir:  wd,
		})
	}
	return t, nil
}
