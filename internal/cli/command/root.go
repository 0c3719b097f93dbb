package command

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/framekv-go/internal/cli/config"
	"github.com/yndnr/framekv-go/internal/cli/output"
	"github.com/yndnr/framekv-go/internal/infra/buildinfo"
	"github.com/yndnr/framekv-go/internal/infra/tlsroots"
	"github.com/yndnr/framekv-go/pkg/client"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "framekv-cli",
		Usage:   "framekv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			PingCommand(),
			BenchCommand(),
			ReplCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI configuration file",
			EnvVars: []string{"FRAMEKV_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "saved server profile from the configuration file",
			EnvVars: []string{"FRAMEKV_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "framekv server address",
			EnvVars: []string{"FRAMEKV_SERVER"},
			Value:   config.DefaultServer,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "per-request timeout",
			EnvVars: []string{"FRAMEKV_TIMEOUT"},
			Value:   client.DefaultTimeout,
		},
		&cli.BoolFlag{
			Name:    "tls",
			Usage:   "connect over TLS using the system roots",
			EnvVars: []string{"FRAMEKV_TLS"},
		},
		&cli.StringFlag{
			Name:    "tls-ca",
			Usage:   "PEM file of CAs trusted for the server certificate (implies --tls)",
			EnvVars: []string{"FRAMEKV_TLS_CA"},
		},
		&cli.StringFlag{
			Name:  "tls-server-name",
			Usage: "server name to verify instead of the dialed host",
		},
		&cli.StringFlag{
			Name:    "tls-cert",
			Usage:   "client certificate for mutual TLS",
			EnvVars: []string{"FRAMEKV_TLS_CERT"},
		},
		&cli.StringFlag{
			Name:    "tls-key",
			Usage:   "client key for mutual TLS",
			EnvVars: []string{"FRAMEKV_TLS_KEY"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Timeout time.Duration
	Output  output.Format

	// TLS is nil for plaintext connections.
	TLS *tls.Config

	// ConfigPath and Config are the CLI configuration file and its
	// contents.
	ConfigPath string
	Config     *config.CLIConfig
}

// ParseGlobalFlags resolves the global flags. Flags and their environment
// variables win over the selected profile, which wins over the top level
// of the configuration file.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	profile, err := cfg.Resolve(c.String("profile"))
	if err != nil {
		return nil, err
	}

	flags := &GlobalFlags{
		Server:     profile.Server,
		Timeout:    profile.Timeout,
		ConfigPath: path,
		Config:     cfg,
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout")
	}

	outputName := cfg.Output
	if c.IsSet("output") {
		outputName = c.String("output")
	}
	if flags.Output, err = output.ParseFormat(outputName); err != nil {
		return nil, err
	}

	if flags.TLS, err = tlsConfig(c); err != nil {
		return nil, err
	}
	return flags, nil
}

// tlsConfig builds the client TLS config from the --tls flags, or returns
// nil when none is set.
func tlsConfig(c *cli.Context) (*tls.Config, error) {
	caFile, certFile, keyFile := c.String("tls-ca"), c.String("tls-cert"), c.String("tls-key")
	if !c.Bool("tls") && caFile == "" && certFile == "" {
		return nil, nil
	}

	roots := tlsroots.NewPool()
	if caFile != "" {
		roots = tlsroots.NewEmptyPool()
		if err := roots.AddCertFile(caFile); err != nil {
			return nil, err
		}
	}
	cfg := roots.ClientConfig(c.String("tls-server-name"))

	if certFile != "" || keyFile != "" {
		if certFile == "" || keyFile == "" {
			return nil, fmt.Errorf("--tls-cert and --tls-key must be given together")
		}
		pair, err := tlsroots.NewReloader(certFile, keyFile)
		if err != nil {
			return nil, err
		}
		cfg.GetClientCertificate = pair.GetClientCertificate
	}
	return cfg, nil
}

// clientOptions returns the client options selected by flags.
func (f *GlobalFlags) clientOptions() []client.Option {
	opts := []client.Option{client.WithTimeout(f.Timeout)}
	if f.TLS != nil {
		opts = append(opts, client.WithTLS(f.TLS))
	}
	return opts
}

// connect dials the configured server.
func connect(c *cli.Context, flags *GlobalFlags) (*client.Client, error) {
	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	cl, err := client.Dial(ctx, flags.Server, flags.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", flags.Server, err)
	}
	return cl, nil
}

// withClient runs fn with a connected client and a request context.
func withClient(c *cli.Context, fn func(ctx context.Context, cl *client.Client, flags *GlobalFlags) error) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	cl, err := connect(c, flags)
	if err != nil {
		return err
	}
	defer cl.Close()

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()
	return fn(ctx, cl, flags)
}

// render writes data in the selected output format.
func render(c *cli.Context, format output.Format, data any) error {
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

// requireArgs checks the positional argument count.
func requireArgs(c *cli.Context, min, max int) error {
	n := c.NArg()
	if n < min || n > max {
		_ = cli.ShowSubcommandHelp(c)
		if min == max {
			return fmt.Errorf("%s: expected %d argument(s), got %d", c.Command.Name, min, n)
		}
		return fmt.Errorf("%s: expected %d to %d arguments, got %d", c.Command.Name, min, max, n)
	}
	return nil
}
