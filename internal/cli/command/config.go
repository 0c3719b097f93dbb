package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/framekv-go/internal/cli/config"
	"github.com/yndnr/framekv-go/internal/cli/output"
)

// configView is the effective configuration printed by config show.
type configView struct {
	Path     string                    `json:"path" yaml:"path"`
	Server   string                    `json:"server" yaml:"server"`
	Timeout  string                    `json:"timeout" yaml:"timeout"`
	Output   string                    `json:"output" yaml:"output"`
	Current  string                    `json:"current_profile,omitempty" yaml:"current_profile,omitempty"`
	Profiles map[string]config.Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// Table implements output.Tabler.
func (v configView) Table() *output.Table {
	t := &output.Table{Headers: []string{"PROFILE", "SERVER", "TIMEOUT", "CURRENT"}}
	for _, name := range (&config.CLIConfig{Profiles: v.Profiles}).ProfileNames() {
		p := v.Profiles[name]
		timeout := "-"
		if p.Timeout > 0 {
			timeout = p.Timeout.String()
		}
		current := ""
		if name == v.Current {
			current = "*"
		}
		t.AddRow(name, p.Server, timeout, current)
	}
	return t
}

// ConfigCommand returns the config command.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the CLI configuration file",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective settings and saved profiles",
				Action: func(c *cli.Context) error {
					flags, err := ParseGlobalFlags(c)
					if err != nil {
						return err
					}
					return render(c, flags.Output, configView{
						Path:     flags.ConfigPath,
						Server:   flags.Server,
						Timeout:  flags.Timeout.String(),
						Output:   string(flags.Output),
						Current:  flags.Config.CurrentProfile,
						Profiles: flags.Config.Profiles,
					})
				},
			},
			{
				Name:      "set-profile",
				Usage:     "Save or replace a server profile",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "server address", Required: true},
					&cli.DurationFlag{Name: "request-timeout", Usage: "per-request timeout (0 inherits)"},
				},
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 1, 1); err != nil {
						return err
					}
					flags, err := ParseGlobalFlags(c)
					if err != nil {
						return err
					}
					name := c.Args().First()
					flags.Config.Profiles[name] = config.Profile{
						Server:  c.String("addr"),
						Timeout: c.Duration("request-timeout"),
					}
					if err := config.Save(flags.Config, flags.ConfigPath); err != nil {
						return err
					}
					return render(c, flags.Output, fmt.Sprintf("profile %q saved", name))
				},
			},
			{
				Name:      "use",
				Usage:     "Select the profile used without --profile (empty name clears it)",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					if err := requireArgs(c, 0, 1); err != nil {
						return err
					}
					flags, err := ParseGlobalFlags(c)
					if err != nil {
						return err
					}
					name := c.Args().First()
					if _, ok := flags.Config.Profiles[name]; name != "" && !ok {
						return fmt.Errorf("unknown profile %q", name)
					}
					flags.Config.CurrentProfile = name
					if err := config.Save(flags.Config, flags.ConfigPath); err != nil {
						return err
					}
					if name == "" {
						return render(c, flags.Output, "current profile cleared")
					}
					return render(c, flags.Output, fmt.Sprintf("using profile %q", name))
				},
			},
		},
	}
}
