package command

import (
	"github.com/yndnr/framekv-go/internal/storage"
	"github.com/yndnr/framekv-go/pkg/frame"
)

func init() {
	Register("get", 1, 1, func(args [][]byte) Command {
		return Get{Key: string(args[0])}
	})
	Register("set", 2, 2, func(args [][]byte) Command {
		return Set{Key: string(args[0]), Value: args[1]}
	})
	Register("ping", 0, 1, func(args [][]byte) Command {
		if len(args) == 0 {
			return Ping{}
		}
		return Ping{Message: args[0], HasMessage: true}
	})
}

// Get reads the value stored under Key.
type Get struct {
	Key string
}

// Name implements Command.
func (Get) Name() string { return "get" }

// Apply returns Bulk(value) when the key exists and Null otherwise.
func (c Get) Apply(kv storage.KV) frame.Frame {
	v, ok := kv.Get(c.Key)
	if !ok {
		return frame.Null()
	}
	return frame.Bulk(v)
}

// Frame implements Command.
func (c Get) Frame() frame.Frame {
	return Request("GET", []byte(c.Key))
}

// Set stores Value under Key, overwriting any previous value.
type Set struct {
	Key   string
	Value []byte
}

// Name implements Command.
func (Set) Name() string { return "set" }

// Apply always succeeds with +OK.
func (c Set) Apply(kv storage.KV) frame.Frame {
	kv.Set(c.Key, c.Value)
	return frame.Simple("OK")
}

// Frame implements Command.
func (c Set) Frame() frame.Frame {
	return Request("SET", []byte(c.Key), c.Value)
}

// Ping checks liveness. With a message it echoes the message back.
type Ping struct {
	Message    []byte
	HasMessage bool
}

// Name implements Command.
func (Ping) Name() string { return "ping" }

// Apply returns +PONG, or the message as a Bulk frame.
func (c Ping) Apply(storage.KV) frame.Frame {
	if c.HasMessage {
		return frame.Bulk(c.Message)
	}
	return frame.Simple("PONG")
}

// Frame implements Command.
func (c Ping) Frame() frame.Frame {
	if c.HasMessage {
		return Request("PING", c.Message)
	}
	return Request("PING")
}
