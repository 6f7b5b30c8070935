package main

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/branchnode/pkg/assembler"
	"github.com/DeBrosOfficial/branchnode/pkg/bootnodes"
	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/errors"
	"github.com/DeBrosOfficial/branchnode/pkg/lifecycle"
	"github.com/DeBrosOfficial/branchnode/pkg/logging"
	"github.com/DeBrosOfficial/branchnode/pkg/node"
	"github.com/DeBrosOfficial/branchnode/pkg/rootchain"
	"github.com/DeBrosOfficial/branchnode/pkg/service"
	"github.com/DeBrosOfficial/branchnode/pkg/status"
)

// loadFileConfig reads --config, then applies the flag overrides.
func loadFileConfig(o *options) (*config.FileConfig, error) {
	fc := config.DefaultFileConfig()
	if o.configPath != "" {
		var err error
		if fc, err = config.LoadFile(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		fc.Logging.Level = o.logLevel
	}
	if o.statusAddr != "" {
		fc.Status.Enabled = true
		fc.Status.ListenAddr = o.statusAddr
	}
	if errs := fc.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigError("config", "invalid configuration file", config.Join(errs))
	}
	return fc, nil
}

type loggerSyncer struct{ logger *logging.ColoredLogger }

// Close flushes the logger. Sync errors on terminals are expected and ignored.
func (s loggerSyncer) Close() error {
	_ = s.logger.Sync()
	return nil
}

func run(o *options) error {
	fc, err := loadFileConfig(o)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:        fc.Logging.Level,
		EnableColors: fc.Logging.Color,
		OutputFile:   fc.Logging.OutputFile,
		MaxSizeMB:    fc.Logging.MaxSizeMB,
		MaxBackups:   fc.Logging.MaxBackups,
		MaxAgeDays:   fc.Logging.MaxAgeDays,
		Compress:     fc.Logging.Compress,
	})
	if err != nil {
		return errors.NewConfigError("logging", "failed to create logger", err)
	}

	controller := lifecycle.Install(logger)
	defer controller.Close()

	ctx := context.Background()
	instanceID := uuid.NewString()

	asm := assembler.New(assembler.Options{
		Version: versionInfo(),
		Trigger: controller.Trigger(),
		Router:  bootnodes.NewClient(fc.BootnodesRouter.Timeout, logger),
		Logger:  logger,
	})

	cfg, err := asm.Assemble(ctx, o.cliParams())
	if err != nil {
		logFailure(logger, "Failed to assemble node configuration", err)
		_ = logger.Sync()
		return err
	}

	logger.ComponentInfo(logging.ComponentNode, cfg.Version.Name,
		zap.String("version", cfg.Version.Version),
		zap.String("commit", cfg.Version.Commit),
		zap.String("author", cfg.Version.Author),
		zap.String("chain_spec", cfg.ChainSpec.Name),
		zap.String("node_name", cfg.Name),
		zap.String("role", cfg.Role.String()),
		zap.Uint16("shard_num", cfg.ShardNum),
		zap.Uint16("shard_count", cfg.ShardCount),
		zap.String("instance_id", instanceID),
	)

	var telemetry []io.Closer
	var reporter rootchain.Reporter
	if fc.Status.Enabled {
		srv := status.New(status.Identity{
			InstanceID: instanceID,
			Name:       cfg.Name,
			Version:    cfg.Version.Version,
			Chain:      cfg.ChainSpec.Name,
			Role:       cfg.Role.String(),
			ShardNum:   cfg.ShardNum,
			ShardCount: cfg.ShardCount,
		}, logger)
		if err := srv.Start(fc.Status.ListenAddr); err != nil {
			logger.ComponentWarn(logging.ComponentStatus, "Status server disabled", zap.Error(err))
		} else {
			reporter = srv
			telemetry = append(telemetry, srv)
		}
	}
	telemetry = append(telemetry, loggerSyncer{logger: logger})

	workCtx, cancelWork := controller.Context(ctx)
	defer cancelWork()

	svc, err := node.New(node.Options{
		Config:   cfg,
		Settings: service.SettingsFrom(fc),
		Builder:  asm,
		Reporter: reporter,
		Logger:   logger,
	})
	if err != nil {
		logFailure(logger, "Failed to create node", err)
		closeAll(telemetry)
		return err
	}
	if err := svc.Start(workCtx); err != nil {
		logFailure(logger, "Failed to start node", err)
		closeAll(telemetry)
		return err
	}

	sig, err := lifecycle.RunUntilExit(ctx, controller, lifecycle.Teardown{
		CancelWork: cancelWork,
		Service:    svc,
		Telemetry:  telemetry,
		Logger:     logger,
	})
	if sig == lifecycle.Restart {
		controller.Close()
		return restart()
	}
	return err
}

// logFailure logs a startup failure with its code and fatality class.
func logFailure(logger *logging.ColoredLogger, msg string, err error) {
	code := errors.GetErrorCode(err)
	logger.ComponentError(logging.ComponentNode, msg,
		zap.String("code", code),
		zap.String("category", string(errors.GetCategory(code))),
		zap.Bool("fatal", errors.IsFatal(err)),
		zap.String("reason", errors.GetErrorMessage(err)),
		zap.Error(err))
	logger.ComponentDebug(logging.ComponentNode, "Failure origin", zap.String("stack", errors.StackTrace(err)))
}

// exitCode maps a run error to the process exit status. Configuration
// errors exit with 2, everything else with 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.GetCategory(errors.GetErrorCode(err)) == errors.CategoryConfig:
		return 2
	default:
		return 1
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

// restart replaces the process with a fresh copy of itself.
func restart() error {
	exe, err := os.Executable()
	if err != nil {
		return errors.NewInternalError("failed to locate executable", err).WithOperation("restart")
	}
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		return errors.NewInternalError("failed to re-execute", err).WithOperation("restart")
	}
	return nil
}
