package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"spacyserver/app/api"
	"spacyserver/app/api/mcpserver"
	"spacyserver/app/client/amrllm"
	"spacyserver/app/client/modelserver"
	"spacyserver/app/config"
	"spacyserver/app/service/amrviz"
	"spacyserver/app/service/extension"
	"spacyserver/app/service/invocation"
	"spacyserver/app/service/models"
	"spacyserver/app/service/parser"
	"spacyserver/app/service/reinvoke"
	"spacyserver/app/service/warmup"
	"spacyserver/app/util/mylog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
)

func main() {
	mylog.Preinit()

	app := &cli.App{
		Name:  "spacyserver",
		Usage: "NLP parsing service: tokens, entities, coreference and AMR graphs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML config file, optional",
				Value:   "config.yaml",
				EnvVars: []string{"SPACY_SERVER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the standalone HTTP server",
				Action: serve,
			},
			{
				Name:   "lambda",
				Usage:  "run as an AWS Lambda function",
				Action: runLambda,
			},
			{
				Name:   "extension",
				Usage:  "run as a Lambda extension that warms a new instance on spindown",
				Action: runExtension,
			},
			{
				Name:   "mcp",
				Usage:  "serve the parse_text tool over MCP stdio",
				Action: runMCP,
			},
			{
				Name:      "parse",
				Usage:     "parse TEXT (or stdin) once and print the result",
				ArgsUsage: "[TEXT]",
				Action:    parseOnce,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func setup(c *cli.Context) (*do.Injector, error) {
	di := do.New()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		return nil, err
	}

	do.Provide(di, modelserver.NewClient)
	do.Provide(di, amrllm.NewClient)
	do.Provide(di, models.New)
	do.Provide(di, parser.New)
	do.Provide(di, warmup.NewMarker)
	do.Provide(di, warmup.New)
	do.Provide(di, func(i *do.Injector) (reinvoke.Invoker, error) {
		invoker, err := reinvoke.NewLambdaInvoker(i)
		if err != nil {
			return nil, err
		}
		return invoker, nil
	})
	do.Provide(di, reinvoke.New)
	do.Provide(di, extension.NewClient)
	do.Provide(di, extension.New)
	do.Provide(di, invocation.New)
	do.Provide(di, amrviz.New)
	do.Provide(di, api.New)
	do.Provide(di, mcpserver.New)

	slog.Info("Service configured",
		"env", cfg.Env,
		"base", cfg.Models.Base.Backend,
		"coref", cfg.Models.Coref.Backend,
		"amr", cfg.Models.AMR.Backend,
	)

	return di, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serve(c *cli.Context) error {
	di, err := setup(c)
	if err != nil {
		return err
	}
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	ctx, cancel := signalContext()
	defer cancel()

	// start loading before the listener comes up
	do.MustInvoke[*models.Service](di)

	return do.MustInvoke[*api.Server](di).Run(ctx)
}

func runLambda(c *cli.Context) error {
	di, err := setup(c)
	if err != nil {
		return err
	}

	do.MustInvoke[*models.Service](di)
	handler := do.MustInvoke[*invocation.Service](di)

	onSigterm := func() {
		slog.Info("SIGTERM received")

		reinvokeSvc, err := do.Invoke[*reinvoke.Service](di)
		if err != nil {
			slog.Error("Reinvoke unavailable", "error", err)
		} else {
			if err = reinvokeSvc.MaybeReinvoke(context.Background()); err != nil {
				slog.Error("Reinvoke failed", "error", err)
			}
		}

		if err = di.Shutdown(); err != nil {
			slog.Warn("Shutdown failed", "error", err)
		}
	}

	lambda.StartWithOptions(handler.Handle, lambda.WithEnableSIGTERM(onSigterm))

	return nil
}

func runExtension(c *cli.Context) error {
	di, err := setup(c)
	if err != nil {
		return err
	}
	defer di.Shutdown()

	ctx, cancel := signalContext()
	defer cancel()

	return do.MustInvoke[*extension.Service](di).Run(ctx)
}

func runMCP(c *cli.Context) error {
	di, err := setup(c)
	if err != nil {
		return err
	}
	defer di.Shutdown()

	ctx, cancel := signalContext()
	defer cancel()

	do.MustInvoke[*models.Service](di)

	return do.MustInvoke[*mcpserver.Server](di).Run(ctx)
}

func parseOnce(c *cli.Context) error {
	di, err := setup(c)
	if err != nil {
		return err
	}
	defer di.Shutdown()

	text := strings.Join(c.Args().Slice(), " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		text = string(data)
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := do.MustInvoke[*parser.Service](di).Parse(ctx, text)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(result)
}
