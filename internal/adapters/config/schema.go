package config

// Remakefile is the YAML build source compiled into a manifest.
type Remakefile struct {
	// Platform names the manifest platform. Empty selects the host.
	Platform string               `yaml:"platform"`
	Targets  map[string]TargetDTO `yaml:"targets"`
}

// TargetDTO is a target definition in the build source.
type TargetDTO struct {
	DependsOn []string     `yaml:"dependsOn"`
	Commands  []CommandDTO `yaml:"commands"`
}

// CommandDTO is a command definition in the build source.
type CommandDTO struct {
	Cmd         []string          `yaml:"cmd"`
	IgnoreError bool              `yaml:"ignoreError"`
	Environment map[string]string `yaml:"environment"`
	WorkingDir  string            `yaml:"workingDir"`
}
