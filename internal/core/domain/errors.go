package domain

import "go.trai.ch/zerr"

// Manifest decoding.
var (
	// ErrUnexpectedEOF is returned when the manifest ends before a field is complete.
	ErrUnexpectedEOF = zerr.New("exceptional end of file, the manifest may be broken")

	// ErrBadMagic is returned when the manifest does not start with the "remake" tag.
	ErrBadMagic = zerr.New("the file is not a remake manifest")

	// ErrUnknownPlatform is returned for platform codes outside the known set.
	ErrUnknownPlatform = zerr.New("platform number is unknown")

	// ErrPlatformMismatch is returned when the manifest was compiled for another platform.
	ErrPlatformMismatch = zerr.New("the platform is not right")

	// ErrUnsupportedPlatform is a fatal configuration error for platforms the engine refuses to run on.
	ErrUnsupportedPlatform = zerr.New("unsupported platform")

	// ErrVersionMismatch is returned when the manifest major version differs from the engine's.
	ErrVersionMismatch = zerr.New("the version does not match")

	// ErrInvalidUTF8 is returned when a string field is not valid UTF-8.
	ErrInvalidUTF8 = zerr.New("string is not valid utf-8")

	// ErrTrailingData is returned when bytes remain after the last target record.
	ErrTrailingData = zerr.New("all content has been read but there are bytes left")

	// ErrDuplicateTarget is returned in strict mode when a target name is declared twice.
	ErrDuplicateTarget = zerr.New("target declared more than once")
)

// Scheduling.
var (
	// ErrTargetNotFound is returned when a requested root target is not declared.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrMissingDependency is returned when a target references a dependency that is not declared.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrUnsatisfiableGraph is returned when admitted targets can never become ready,
	// which happens when their dependencies form a cycle.
	ErrUnsatisfiableGraph = zerr.New("dependency graph cannot be satisfied")
)

// Execution.
var (
	// ErrCommandStart is the kind of runtime error raised when a process cannot be spawned.
	ErrCommandStart = zerr.New("could not start process")

	// ErrCommandExit is the kind of runtime error raised when a process exits with a non-zero code.
	ErrCommandExit = zerr.New("process exited with non-zero code")

	// ErrCommandTerminated is the kind of runtime error raised when a process is killed
	// or its exit status cannot be determined.
	ErrCommandTerminated = zerr.New("process was terminated")

	// ErrBuildExecutionFailed is returned when at least one target failed to build.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrNoTargetsSpecified is returned when a run is requested without any target.
	ErrNoTargetsSpecified = zerr.New("no targets specified")
)

// Configuration.
var (
	// ErrInvalidSource is returned when a YAML build source cannot be compiled.
	ErrInvalidSource = zerr.New("invalid build source")

	// ErrEmptyCommand is returned when a source command has no executable.
	ErrEmptyCommand = zerr.New("command is empty")
)

// Graph validation.
var (
	// ErrCycleDetected is returned when target dependencies form a cycle.
	ErrCycleDetected = zerr.New("cycle detected")
)
