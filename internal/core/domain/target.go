package domain

import "strings"

// Target is a named build goal with dependencies and an ordered list of commands.
// Targets are built once by the manifest parser and shared by pointer afterwards;
// nothing mutates them during a run.
type Target struct {
	Name         InternedString
	Dependencies []InternedString
	Commands     []*Command
}

// Command is a single process invocation belonging to a target.
type Command struct {
	Executable  string
	Arguments   []string
	IgnoreError bool
	Environment map[string]string
	WorkingDir  string
}

// String renders the command as "executable arg1 arg2 ...".
func (c *Command) String() string {
	if c == nil {
		return ""
	}
	if len(c.Arguments) == 0 {
		return c.Executable
	}
	return c.Executable + " " + strings.Join(c.Arguments, " ")
}
