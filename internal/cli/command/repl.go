package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/framekv-go/internal/cli/repl"
)

// ReplCommand returns the interactive shell command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start an interactive shell",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file (empty disables persistence)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: func(c *cli.Context) error {
			flags, err := ParseGlobalFlags(c)
			if err != nil {
				return err
			}
			cl, err := connect(c, flags)
			if err != nil {
				return err
			}
			defer cl.Close()

			history := repl.NewHistory(c.String("history"))
			if err := history.Load(); err != nil {
				fmt.Fprintf(c.App.ErrWriter, "warning: load history: %v\n", err)
			}
			defer func() {
				if err := history.Save(); err != nil {
					fmt.Fprintf(c.App.ErrWriter, "warning: save history: %v\n", err)
				}
			}()

			fmt.Fprintf(c.App.Writer, "connected to %s, type help or exit\n", flags.Server)
			shell := repl.New(cl, c.App.Reader, c.App.Writer,
				repl.WithHistory(history),
				repl.WithPrompt(flags.Server+"> "))
			return shell.Run(c.Context)
		},
	}
}
