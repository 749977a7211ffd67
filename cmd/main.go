package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/terabiome/skyvllm/internal/adapter"
	"github.com/terabiome/skyvllm/internal/api"
	"github.com/terabiome/skyvllm/internal/config"
	"github.com/terabiome/skyvllm/internal/handler"
	"github.com/terabiome/skyvllm/pkg/logger"
	"github.com/terabiome/skyvllm/pkg/telemetry"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var (
		cfg *config.Config
		log = slog.Default()
		tel *telemetry.Telemetry
	)

	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	app := &cli.App{
		Name:                 "skyvllm",
		Usage:                "Deploy vLLM models on SkyPilot clusters and query them",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (also SKYVLLM_CONFIG)",
			},
		},
		Before: func(cliCtx *cli.Context) error {
			var err error
			cfg, err = config.Load(cliCtx.String("config"))
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			log = logger.New(cfg.LogLevel, cfg.LogFormat)
			log.Debug("skyvllm starting",
				slog.String("log_level", cfg.LogLevel),
				slog.String("orchestrator", cfg.Orchestrator),
				slog.Bool("telemetry_enabled", cfg.TelemetryEnabled),
			)

			if cfg.TelemetryEnabled {
				if tel, err = telemetry.Initialize("skyvllm"); err != nil {
					return fmt.Errorf("failed to initialize telemetry: %w", err)
				}
				log.Info("telemetry initialized")
			}
			return nil
		},
		After: func(cliCtx *cli.Context) error {
			if tel == nil {
				return nil
			}
			log.Info("shutting down telemetry")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return tel.Shutdown(shutdownCtx)
		},
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server (deploy/infer page and JSON API)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "address",
						Aliases: []string{"a"},
						Usage:   "Server address",
						Value:   ":7860",
					},
					&cli.BoolFlag{
						Name:  "api-only",
						Usage: "Serve only the JSON API",
					},
				},
				Action: func(cliCtx *cli.Context) error {
					return runServer(ctx, cfg, log, cliCtx.String("address"), !cliCtx.Bool("api-only"))
				},
			},
			{
				Name:  "deploy",
				Usage: "Provision a cluster and start serving a model on it",
				Flags: deployFlags(),
				Action: func(cliCtx *cli.Context) error {
					req, err := deployRequestFromCLI(cliCtx)
					if err != nil {
						return err
					}

					svc, cleanup, err := initServingService(cfg, log)
					if err != nil {
						return err
					}
					defer cleanup()

					params := adapter.AdaptDeploy(req)
					out := cliCtx.App.Writer

					if cliCtx.Bool("dry-run") {
						name, task, err := svc.RenderTask(params)
						if err != nil {
							printFailure(cliCtx.App.ErrWriter, err)
							return err
						}
						return printTask(out, name, task)
					}

					handle, err := svc.Deploy(ctx, params)
					if err != nil {
						printFailure(cliCtx.App.ErrWriter, err)
						return err
					}

					printSuccess(out, "%s", handler.DeployedMessage(handle.Name))
					return nil
				},
			},
			{
				Name:      "infer",
				Usage:     "Send a prompt to a deployed model",
				ArgsUsage: "<prompt>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "cluster-name",
						Aliases:  []string{"n"},
						Usage:    "Cluster the model is deployed on",
						Required: true,
					},
				},
				Action: func(cliCtx *cli.Context) error {
					prompt := strings.Join(cliCtx.Args().Slice(), " ")
					if prompt == "" {
						return errors.New("empty prompt")
					}

					svc, cleanup, err := initServingService(cfg, log)
					if err != nil {
						return err
					}
					defer cleanup()

					output, err := svc.Infer(ctx, adapter.AdaptInfer(api.InferRequest{
						ClusterName: cliCtx.String("cluster-name"),
						Prompt:      prompt,
					}))
					if err != nil {
						printFailure(cliCtx.App.ErrWriter, err)
						return err
					}

					fmt.Fprintln(cliCtx.App.Writer, output)
					return nil
				},
			},
			{
				Name:      "resolve",
				Usage:     "Print the address of a cluster",
				ArgsUsage: "<cluster-name>",
				Action: func(cliCtx *cli.Context) error {
					name := cliCtx.Args().First()
					if name == "" {
						return errors.New("empty cluster name")
					}

					svc, cleanup, err := initServingService(cfg, log)
					if err != nil {
						return err
					}
					defer cleanup()

					addr, err := svc.Resolve(ctx, name)
					if err != nil {
						printFailure(cliCtx.App.ErrWriter, err)
						return err
					}

					printField(cliCtx.App.Writer, "cluster", name)
					printField(cliCtx.App.Writer, "address", string(addr))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
