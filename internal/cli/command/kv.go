package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/framekv-go/pkg/client"
)

// GetResult is the outcome of a get.
type GetResult struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Found bool   `json:"found" yaml:"found"`
}

// String prints the value, or (nil) for a missing key.
func (r GetResult) String() string {
	if !r.Found {
		return "(nil)"
	}
	return r.Value
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read the value stored under a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, 1); err != nil {
				return err
			}
			key := c.Args().First()
			return withClient(c, func(ctx context.Context, cl *client.Client, flags *GlobalFlags) error {
				v, ok, err := cl.Get(ctx, key)
				if err != nil {
					return err
				}
				return render(c, flags.Output, GetResult{Key: key, Value: string(v), Found: ok})
			})
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value under a key",
		ArgsUsage: "KEY VALUE",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2, 2); err != nil {
				return err
			}
			key, value := c.Args().Get(0), c.Args().Get(1)
			return withClient(c, func(ctx context.Context, cl *client.Client, flags *GlobalFlags) error {
				if err := cl.Set(ctx, key, []byte(value)); err != nil {
					return err
				}
				return render(c, flags.Output, "OK")
			})
		},
	}
}

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check the server is alive, optionally echoing a message",
		ArgsUsage: "[MESSAGE]",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 0, 1); err != nil {
				return err
			}
			var msg []byte
			if c.NArg() == 1 {
				msg = []byte(c.Args().First())
			}
			return withClient(c, func(ctx context.Context, cl *client.Client, flags *GlobalFlags) error {
				reply, err := cl.Ping(ctx, msg)
				if err != nil {
					return err
				}
				return render(c, flags.Output, string(reply))
			})
		},
	}
}
