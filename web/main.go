package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/loaders"
	"github.com/df07/go-interactive-raytracer/pkg/session"
	"github.com/df07/go-interactive-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	configPath := flag.String("config", "", "Params file (TOML), watched for changes")
	staticDir := flag.String("static", "static/", "Directory with the viewer page")
	scenesDir := flag.String("scenes", "scenes", "Directory with YAML scene files")
	verbose := flag.Bool("v", false, "Log debug messages")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	consoleChan := make(chan server.ConsoleMessage, 50)
	logger := slog.New(server.NewConsoleHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}), consoleChan))
	slog.SetDefault(logger)

	if err := run(*port, *configPath, *staticDir, *scenesDir, logger, consoleChan); err != nil {
		logger.Error("web server failed", "error", err)
		os.Exit(1)
	}
}

func run(port int, configPath, staticDir, scenesDir string, logger *slog.Logger, consoleChan <-chan server.ConsoleMessage) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := config.Default()
	if configPath != "" {
		var err error
		if params, err = config.Load(configPath); err != nil {
			return err
		}
	}

	sess, err := session.Load(params, session.Options{
		Loader: &loaders.SceneLoader{},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	webServer := server.NewServer(sess, server.Options{
		Port:      port,
		StaticDir: staticDir,
		ScenesDir: scenesDir,
		Logger:    logger,
	})
	go webServer.StreamConsole(ctx, consoleChan)

	if configPath != "" {
		err := config.Watch(ctx, configPath, logger, func(p config.Params) {
			if err := webServer.ApplyParams(p); err != nil {
				logger.Warn("failed to apply params", "error", err)
			}
		})
		if err != nil {
			logger.Warn("params file is not watched", "error", err)
		}
	}

	logger.Info("Interactive Raytracer Web Server", "port", port)
	if err := sess.Start(webServer); err != nil {
		return err
	}
	return webServer.Start(ctx)
}
