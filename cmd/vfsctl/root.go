package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/client"
	"github.com/yasakei/xos/internal/infrastructure/logging"
)

type options struct {
	server  string
	timeout time.Duration
	debug   bool
	client  *client.Client
}

// newRootCommand creates the vfsctl command tree
func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "vfsctl",
		Short:         "Command line client for the xos VFS server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := client.DefaultConfig(opts.server)
			cfg.Timeout = opts.timeout
			cfg.Logger = zap.NewNop()
			if opts.debug {
				logger, err := logging.New(logging.Config{
					Level:       "debug",
					Development: true,
					OutputPaths: []string{"stderr"},
				})
				if err != nil {
					return err
				}
				cfg.Logger = logger.Logger
			}
			opts.client = client.New(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:3001", "Server base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Log retries and breaker changes")

	root.AddCommand(
		usersCommand(opts),
		loginCommand(opts),
		switchCommand(opts),
		logoutCommand(opts),
		whoamiCommand(opts),
		treeCommand(opts),
		catCommand(opts),
		putCommand(opts),
		uploadCommand(opts),
		createCommand(opts, "mkdir", "Create a directory"),
		createCommand(opts, "touch", "Create an empty file"),
		rmCommand(opts),
		mvCommand(opts),
		statCommand(opts),
		searchCommand(opts),
		duCommand(opts),
		watchCommand(opts),
	)
	return root
}
