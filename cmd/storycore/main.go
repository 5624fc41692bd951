// Storycore runs the disinformation campaign in the terminal.
// Usage: storycore [--version] [--plain] [--script <file>] [--trace]
//
//	[--seed <seed>] [--difficulty easy|normal|hard] [--lang de|en]
//	[--content <dir>] [--env <file>]
//
// Every flag except --version, --plain, --script and --trace overrides the
// matching STORY_* environment variable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/nathoo/storycore/cli"
	"github.com/nathoo/storycore/config"
	"github.com/nathoo/storycore/content"
	"github.com/nathoo/storycore/engine"
	"github.com/nathoo/storycore/engine/state"
	"github.com/nathoo/storycore/loader"
	"github.com/nathoo/storycore/logging"
	"github.com/nathoo/storycore/savestore"
	"github.com/nathoo/storycore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: storycore [--version] [--plain] [--script <file>] [--trace] " +
	"[--seed <seed>] [--difficulty <name>] [--lang <code>] [--content <dir>] [--env <file>]"

type options struct {
	plain      bool
	trace      bool
	script     string
	seed       string
	difficulty string
	lang       string
	contentDir string
	envFile    string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := options{envFile: ".env"}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--version":
			fmt.Printf("storycore %s (commit %s, built %s)\n", version, commit, date)
			return 0
		case "--plain":
			opts.plain = true
			continue
		case "--trace":
			opts.trace = true
			continue
		case "-h", "--help":
			fmt.Println(usage)
			return 0
		}

		target := map[string]*string{
			"--script":     &opts.script,
			"--seed":       &opts.seed,
			"--difficulty": &opts.difficulty,
			"--lang":       &opts.lang,
			"--content":    &opts.contentDir,
			"--env":        &opts.envFile,
		}[arg]
		if target == nil {
			fmt.Fprintf(os.Stderr, "unknown argument %q\n%s\n", arg, usage)
			return 2
		}
		if i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires a value\n", arg)
			return 2
		}
		i++
		*target = args[i]
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	opts.apply(&cfg)

	log, err := logging.New(cfg.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	defs, err := loadContent(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading campaign: %v\n", err)
		return 1
	}

	eng, err := engine.New(defs, engine.Options{
		Seed:       cfg.Seed,
		Difficulty: cfg.Difficulty,
		Language:   cfg.Language,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		// Without a store /save and /load report the problem.
		log.Warn("save store unavailable", zap.String("backend", cfg.SaveBackend), zap.Error(err))
	} else {
		defer store.Close()
	}

	// Script mode: read commands from a file, force plain output, echo input.
	if opts.script != "" {
		f, err := os.Open(opts.script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			return 1
		}
		defer f.Close()
		c := cli.New(eng, store)
		c.In = f
		c.EchoInput = true
		c.Trace = opts.trace
		c.Run(ctx)
		return 0
	}

	if opts.plain || !isTerminal() {
		c := cli.New(eng, store)
		c.Trace = opts.trace
		c.Run(ctx)
		return 0
	}

	if err := tui.Run(ctx, eng, store); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (o options) apply(cfg *config.Config) {
	if o.seed != "" {
		cfg.Seed = o.seed
	}
	if o.difficulty != "" {
		cfg.Difficulty = o.difficulty
	}
	if o.lang != "" {
		cfg.Language = o.lang
	}
	if o.contentDir != "" {
		cfg.ContentDir = o.contentDir
	}
}

func loadContent(cfg config.Config, log *zap.Logger) (*state.Defs, error) {
	if cfg.ContentDir != "" {
		return loader.Load(cfg.ContentDir, log)
	}
	return content.Load(log)
}

// openStore connects the configured save backend.
func openStore(ctx context.Context, cfg config.Config) (savestore.Store, error) {
	switch cfg.SaveBackend {
	case config.BackendRedis:
		s, err := savestore.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		s, err := savestore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := savestore.NewFileStore(cfg.SaveDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
