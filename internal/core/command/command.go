package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yndnr/framekv-go/internal/storage"
	"github.com/yndnr/framekv-go/pkg/frame"
)

// Command is a typed, executable request.
type Command interface {
	// Name returns the lower-case command name.
	Name() string

	// Apply executes the command against kv and returns the response frame.
	Apply(kv storage.KV) frame.Frame

	// Frame returns the request frame that parses back to this command.
	Frame() frame.Frame
}

// Builder constructs a command from its arguments (the name excluded).
// The argument count has already been checked against the registration.
type Builder func(args [][]byte) Command

type entry struct {
	name    string
	minArgs int
	maxArgs int
	build   Builder
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]entry)
)

// Register adds a command to the registry. maxArgs < 0 means unbounded.
// Registering a name twice panics.
func Register(name string, minArgs, maxArgs int, build Builder) {
	name = strings.ToLower(name)

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic("command: duplicate registration of " + name)
	}
	registry[name] = entry{name: name, minArgs: minArgs, maxArgs: maxArgs, build: build}
}

// Names returns the registered command names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (entry, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[strings.ToLower(name)]
	return e, ok
}

// Parse converts a request frame into a Command.
func Parse(f frame.Frame) (Command, error) {
	if f.Kind != frame.KindArray {
		return nil, &ParseError{Reason: "expected array of bulk strings, got " + f.Kind.String()}
	}
	if len(f.Elems) == 0 {
		return nil, &ParseError{Reason: "empty command"}
	}

	args := make([][]byte, len(f.Elems))
	for i, e := range f.Elems {
		if e.Kind != frame.KindBulk {
			return nil, &ParseError{Reason: fmt.Sprintf("argument %d is %s, expected bulk", i, e.Kind)}
		}
		args[i] = e.Data
	}

	name := string(args[0])
	e, ok := lookup(name)
	if !ok {
		return nil, &UnsupportedError{Name: name}
	}

	n := len(args) - 1
	if n < e.minArgs || (e.maxArgs >= 0 && n > e.maxArgs) {
		return nil, wrongArgs(e.name)
	}
	return e.build(args[1:]), nil
}

// Request builds a request frame from a command name and arguments.
func Request(name string, args ...[]byte) frame.Frame {
	return frame.Request(name, args...)
}
