package main

import (
	"fmt"
	"log/slog"

	"github.com/terabiome/skyvllm/internal/config"
	"github.com/terabiome/skyvllm/internal/inference"
	"github.com/terabiome/skyvllm/internal/registry"
	"github.com/terabiome/skyvllm/internal/registry/rest"
	"github.com/terabiome/skyvllm/internal/registry/skypilot"
	"github.com/terabiome/skyvllm/internal/service"
	"github.com/terabiome/skyvllm/pkg/constants"
	"github.com/terabiome/skyvllm/pkg/executor"
	"github.com/terabiome/skyvllm/pkg/templator"
)

// initServingService builds the service and everything behind it. The
// returned cleanup releases the SSH connection when one was opened.
func initServingService(cfg *config.Config, log *slog.Logger) (*service.ServingService, func(), error) {
	cleanup := func() {}

	tasks, err := initTaskBuilder(cfg, log)
	if err != nil {
		return nil, cleanup, err
	}

	var reg registry.Client
	switch cfg.Orchestrator {
	case config.OrchestratorREST:
		reg = rest.New(cfg.OrchestratorURL, cfg.RequestTimeout, tasks, log)
		log.Info("using orchestrator API", slog.String("url", cfg.OrchestratorURL))

	default:
		exec, closeExec, err := initExecutor(cfg, log)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = closeExec
		reg = skypilot.New(exec, tasks, skypilot.Config{
			Binary:  cfg.SkyBinary,
			Timeout: cfg.RequestTimeout,
		}, log)
		log.Info("using SkyPilot CLI",
			slog.String("binary", cfg.SkyBinary),
			slog.String("executor", exec.Name()),
		)
	}

	forwarder := inference.NewForwarder(reg, cfg.RequestTimeout, log)
	return service.NewServingService(reg, forwarder, tasks, log), cleanup, nil
}

func initTaskBuilder(cfg *config.Config, log *slog.Logger) (*registry.TaskBuilder, error) {
	engine := templator.NewEngine()

	if cfg.ServingRunTemplate != "" {
		log.Debug("loading serving run template", slog.String("path", cfg.ServingRunTemplate))
		if err := engine.LoadTemplate(constants.TemplateServingRun, cfg.ServingRunTemplate); err != nil {
			return nil, err
		}
	} else if err := engine.ParseTemplate(constants.TemplateServingRun, constants.DefaultServingRunTemplate); err != nil {
		return nil, err
	}

	return registry.NewTaskBuilder(engine, cfg.ServingSetup)
}

func initExecutor(cfg *config.Config, log *slog.Logger) (executor.Executor, func(), error) {
	if cfg.SSHHost == "" {
		return executor.NewLocal(log), func() {}, nil
	}

	ssh, err := executor.NewSSH(executor.SSHConfig{
		Host:           cfg.SSHHost,
		Port:           cfg.SSHPort,
		User:           cfg.SSHUser,
		KeyPath:        cfg.SSHKey,
		KnownHostsPath: cfg.SSHKnownHostsPath,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to control host: %w", err)
	}

	return ssh, func() {
		if err := ssh.Close(); err != nil {
			log.Warn("failed to close SSH connection", slog.String("error", err.Error()))
		}
	}, nil
}
