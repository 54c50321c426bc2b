// Package commands wires configuration, storage and services into the
// leadprep command line.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"leadprep/config"
	"leadprep/services"
	"leadprep/storage"
	"leadprep/utils"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	verbose bool

	cfg     *config.Config
	rules   *config.Rules
	logger  *utils.Logger
	store   storage.Store
	pushLog *storage.PushLog
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "leadprep",
		Short:         "Clean lead exports and push them to a webhook",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newProcessCmd(a),
		newPushCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newSummaryCmd(a),
		newHistoryCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.logger = utils.NewLogger(level)

	if a.rules, err = config.LoadRules(cfg.RulesFile); err != nil {
		return err
	}

	switch cfg.StorageBackend {
	case config.BackendS3:
		a.store, err = storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, cfg.AWSProfile)
	default:
		a.store, err = storage.NewLocalStore(cfg.UploadDir)
	}
	if err != nil {
		return err
	}
	a.logger.Debug("[config] storage backend: %s", cfg.StorageBackend)

	if cfg.PushLogEnabled {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: a.logger}
		if a.pushLog, err = storage.NewPushLog(ctx, cfg.DSN(), retry); err != nil {
			return err
		}
		a.logger.Info("[config] push log enabled (%s:%s/%s)", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	}
	return nil
}

func (a *app) close() {
	if a.pushLog != nil {
		if err := a.pushLog.Close(); err != nil {
			a.logger.Warn("[config] closing push log: %v", err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) reshaper() *services.Reshaper {
	return services.NewReshaper(a.store, a.rules, a.logger)
}

func (a *app) pusher() *services.Pusher {
	opts := services.PusherOptions{
		Timeout:     a.cfg.PushTimeout(),
		Concurrency: a.cfg.PushConcurrency,
		Interval:    a.cfg.PushInterval(),
	}
	// a nil *PushLog must not become a non-nil interface
	if a.pushLog != nil {
		opts.Recorder = a.pushLog
	}
	return services.NewPusher(a.store, nil, opts, a.logger)
}
