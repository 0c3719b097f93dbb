package repl

import (
	"slices"
	"strings"

	"github.com/yndnr/framekv-go/internal/core/command"
)

var localCommands = []string{"exit", "help", "history", "quit"}

// Completer suggests command names for a prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the registered server commands
// and the shell's local commands.
func NewCompleter() *Completer {
	cmds := append(command.Names(), localCommands...)
	slices.Sort(cmds)
	return &Completer{commands: slices.Compact(cmds)}
}

// Complete returns the commands starting with prefix, case-insensitively.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
