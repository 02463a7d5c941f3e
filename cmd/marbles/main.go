// cmd/marbles/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/opd-ai/go-marbles/pkg/config"
	"github.com/opd-ai/go-marbles/pkg/engine"
	"github.com/opd-ai/go-marbles/pkg/logging"
	engorender "github.com/opd-ai/go-marbles/pkg/render/engo"
)

// options holds the command line after parsing
type options struct {
	configPath    string
	createDefault bool
	listCourses   bool
	renderer      string
	course        string
	seed          uint64
	population    int
	frames        int
	tracePath     string
	logPath       string
	set           map[string]bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("marbles", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML configuration file")
	fs.BoolVar(&opts.createDefault, "default", false, "Write the default configuration to -config and exit")
	fs.BoolVar(&opts.listCourses, "courses", false, "List the built-in courses and exit")
	fs.StringVar(&opts.renderer, "renderer", "", "Renderer: terminal, engo, trace or null (overrides config)")
	fs.StringVar(&opts.course, "course", "", "Built-in course: classic, sandbox or empty (overrides config)")
	fs.Uint64Var(&opts.seed, "seed", 0, "Random seed (overrides config)")
	fs.IntVar(&opts.population, "marbles", 0, "Number of marbles (overrides config)")
	fs.IntVar(&opts.frames, "frames", 0, "Frames to run for trace and null renderers; 0 runs until interrupted")
	fs.StringVar(&opts.tracePath, "trace", "-", "Trace output file, - for stdout")
	fs.StringVar(&opts.logPath, "log", "", "Log file; logs go to stderr by default and are dropped in terminal mode")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// loadConfig builds the run configuration: file (or defaults), then the
// environment, then flags.
func loadConfig(opts *options) (*config.SimConfig, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment configuration: %w", err)
	}

	if opts.renderer != "" {
		cfg.Render.Renderer = opts.renderer
	}
	if opts.course != "" {
		tmpl := config.GetCourseTemplate(opts.course)
		if tmpl == nil {
			return nil, fmt.Errorf("unknown course %q", opts.course)
		}
		cfg.Platforms = tmpl.Platforms
	}
	if opts.set["seed"] {
		cfg.Spawn.Seed = opts.seed
	}
	if opts.set["marbles"] {
		cfg.Spawn.Population = opts.population
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	os.Exit(run(opts))
}

func run(opts *options) int {
	logger := logging.NewLogger()
	ctx := logging.WithRunID(context.Background(), "")

	if opts.listCourses {
		printCourses(os.Stdout)
		return 0
	}

	if opts.createDefault {
		if opts.configPath == "" {
			logger.Error(ctx, "Cannot write default configuration", errors.New("-config is required"))
			return 1
		}
		if err := config.SaveConfig(config.DefaultConfig(), opts.configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", opts.configPath,
			)
			return 1
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", opts.configPath,
		)
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", opts.configPath,
		)
		return 1
	}

	logOut, closeLog, err := logWriter(opts.logPath, cfg.Render.Renderer)
	if err != nil {
		logger.Error(ctx, "Failed to open log file", err, "log_path", opts.logPath)
		return 1
	}
	defer closeLog()
	logger = logging.NewLoggerWithWriter(logOut)

	world, err := engine.NewWorld(cfg,
		engine.WithLogger(logger),
		engine.WithContext(ctx),
	)
	if err != nil {
		logger.Error(ctx, "Failed to create world", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting simulation",
		"renderer", cfg.Render.Renderer,
		"platforms", len(cfg.Platforms),
		"marbles", cfg.Spawn.Population,
		"seed", cfg.Spawn.Seed,
	)

	switch cfg.Render.Renderer {
	case config.RendererEngo:
		engorender.Run(ctx, world, cfg.Render, logger)
	case config.RendererTerminal:
		err = runTerminal(ctx, world, cfg.Render, logger)
	case config.RendererTrace:
		err = runTrace(ctx, world, cfg.Render, opts, logger)
	default:
		err = runNull(ctx, world, cfg.Render, opts.frames, logger)
	}
	if err != nil {
		logger.Error(ctx, "Simulation stopped", err)
		return 1
	}

	logger.Info(ctx, "Simulation finished",
		"steps", world.Stepper().StepsTaken(),
		"t", world.Stepper().T(),
	)
	return 0
}

// logWriter picks where logs go. The terminal renderer owns the screen, so
// its logs are dropped unless a file is given.
func logWriter(path, renderer string) (io.Writer, func(), error) {
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	if renderer == config.RendererTerminal {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}

func printCourses(w io.Writer) {
	courses := config.ListCourseTemplates()
	names := make([]string, 0, len(courses))
	for name := range courses {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%-8s %s\n", name, courses[name])
	}
}
