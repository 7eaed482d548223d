// Package commands implements the sitetokens CLI commands.
package commands

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/sitetokens/config"
	"github.com/jonwraymond/sitetokens/service"
)

var errNoFixture = errors.New("no content fixture configured")

// CLI represents the sitetokens command line interface.
type CLI struct {
	rootCmd *cobra.Command

	configPath string
	fixture    string
	logLevel   string
}

// New creates the CLI with every subcommand registered.
func New() *CLI {
	c := &CLI{}
	c.rootCmd = &cobra.Command{
		Use:           "sitetokens",
		Short:         "Resolve multisite tokens in content queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := c.rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "sitetokens.yaml", "Path to configuration file")
	flags.StringVar(&c.fixture, "fixture", "", "Content tree fixture, overrides the configured one")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level, overrides the configured one")

	c.rootCmd.AddCommand(c.newResolveCmd())
	c.rootCmd.AddCommand(c.newFragmentCmd())
	c.rootCmd.AddCommand(c.newHealthCmd())
	c.rootCmd.AddCommand(c.newServeCmd())
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput directs command output and errors to w.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if c.fixture != "" {
		cfg.Fixture = c.fixture
	}
	if c.logLevel != "" {
		cfg.Observe.Logging.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	if cfg.Fixture == "" {
		return config.Config{}, errNoFixture
	}
	return cfg, nil
}

// withService builds a service for the duration of fn.
func (c *CLI) withService(cmd *cobra.Command, fn func(*service.Service) error) (err error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(svc)
}
