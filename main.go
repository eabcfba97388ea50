package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-interactive-raytracer/pkg/config"
	"github.com/df07/go-interactive-raytracer/pkg/loaders"
	"github.com/df07/go-interactive-raytracer/pkg/renderer"
	"github.com/df07/go-interactive-raytracer/pkg/session"
)

// options holds the command line flags. Zero values keep the params file
// or default value.
type options struct {
	configPath  string
	writeConfig string
	scenes      string
	camera      string
	output      string
	sampler     string
	samples     int
	resolution  int
	all         bool
	list        bool
	verbose     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Params file (TOML)")
	fs.StringVar(&opts.writeConfig, "write-config", "", "Write the effective params to this file and exit")
	fs.StringVar(&opts.scenes, "scene", "", "Comma separated scene sources, e.g. builtin:cornell,scenes/room.yaml")
	fs.StringVar(&opts.camera, "camera", "", "Camera name")
	fs.StringVar(&opts.output, "output", "", "Output image path")
	fs.StringVar(&opts.sampler, "sampler", "", "Sampler: "+strings.Join(config.SamplerNames, ", "))
	fs.IntVar(&opts.samples, "samples", 0, "Samples per pixel")
	fs.IntVar(&opts.resolution, "resolution", 0, "Image resolution along the longer side")
	fs.BoolVar(&opts.all, "all", false, "Render and save every scene")
	fs.BoolVar(&opts.list, "list", false, "List available scenes and exit")
	fs.BoolVar(&opts.verbose, "v", false, "Log debug messages")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadParams reads the params file, if any, and applies flag overrides
func loadParams(opts options) (config.Params, error) {
	params := config.Default()
	if opts.configPath != "" {
		var err error
		if params, err = config.Load(opts.configPath); err != nil {
			return params, err
		}
	}

	if opts.scenes != "" {
		params.Scenes = strings.Split(opts.scenes, ",")
	}
	if opts.camera != "" {
		params.Camera = opts.camera
	}
	if opts.output != "" {
		params.Output = opts.output
	}
	if opts.sampler != "" {
		params.Sampler = opts.sampler
	}
	if opts.samples > 0 {
		params.Samples = opts.samples
	}
	if opts.resolution > 0 {
		params.Resolution = opts.resolution
	}
	if opts.all {
		params.SaveBatch = true
	}
	return params, params.Validate()
}

// outputPath returns where the render of a scene is saved. In batch mode
// the scene name is appended to the output file name.
func outputPath(output, sceneName string, batch bool) string {
	if !batch {
		return output
	}
	name := strings.TrimPrefix(sceneName, loaders.BuiltinPrefix)
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "-" + name + ext
}

// render renders the active scene, or every scene in batch mode, and saves
// the results. It returns the paths written.
func render(params config.Params, opts session.Options, logger *slog.Logger) ([]string, error) {
	sess, err := session.Load(params, opts)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	observer := renderer.ObserverFuncs{
		ProgressFunc: func(message string, current, total int) {
			logger.Debug(message, "current", current, "total", total)
		},
	}

	count := 1
	if params.SaveBatch {
		count = sess.Len()
	}

	var written []string
	for i := 0; i < count; i++ {
		startTime := time.Now()
		if i == 0 {
			err = sess.Start(observer)
		} else {
			err = sess.SwitchTo(i)
		}
		if err != nil {
			return written, err
		}
		sess.Controller().Wait()

		_, bundle := sess.Active()
		img := sess.Controller().Snapshot()
		stats := img.Stats()
		logger.Info("render completed", "scene", bundle.Name, "duration", time.Since(startTime),
			"samples", sess.Controller().Samples(), "averageLuminance", stats.AverageLuminance)

		path := outputPath(params.Output, bundle.Name, params.SaveBatch)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return written, fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := loaders.SavePNG(path, img.RGBA(params.Exposure)); err != nil {
			return written, err
		}
		logger.Info("render saved", "path", path)
		written = append(written, path)
	}
	return written, nil
}

func listScenes(w io.Writer, logger *slog.Logger) error {
	scenes, err := loaders.ListScenes("scenes", logger)
	if err != nil {
		return err
	}
	group := ""
	for _, s := range scenes {
		if s.Group != group {
			group = s.Group
			fmt.Fprintf(w, "%s:\n", group)
		}
		fmt.Fprintf(w, "  %-28s %s\n", s.ID, s.Description)
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if opts.list {
		if err := listScenes(os.Stdout, logger); err != nil {
			logger.Error("failed to list scenes", "error", err)
			os.Exit(1)
		}
		return
	}

	params, err := loadParams(opts)
	if err != nil {
		logger.Error("invalid params", "error", err)
		os.Exit(1)
	}
	if opts.writeConfig != "" {
		if err := config.Save(opts.writeConfig, params); err != nil {
			logger.Error("failed to write params", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("Starting Interactive Raytracer", "scenes", len(params.Scenes), "sampler", params.Sampler,
		"samples", params.Samples, "resolution", params.Resolution)
	if _, err := render(params, session.Options{Logger: logger}, logger); err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}
