package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/simlab/audio"
	"github.com/lixenwraith/simlab/config"
	"github.com/lixenwraith/simlab/core"
	"github.com/lixenwraith/simlab/engine"
	"github.com/lixenwraith/simlab/host"
	"github.com/lixenwraith/simlab/scene"
	"github.com/lixenwraith/simlab/service"
	"github.com/lixenwraith/simlab/telemetry"
	"github.com/lixenwraith/simlab/terminal"
)

// options holds parsed command-line flags
// Flags only override the config file when explicitly set
type options struct {
	configPath  string
	writeConfig string
	debug       bool

	threaded  bool
	rate      float64
	balls     int
	seed      int64
	telemetry string
	mute      bool

	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("simlab", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "TOML config file")
	fs.StringVar(&o.writeConfig, "write-config", "", "write the effective config to `path` and exit")
	fs.BoolVar(&o.debug, "debug", false, "log to "+logDir+"/"+logFileName)
	fs.BoolVar(&o.threaded, "threaded", true, "step physics on its own goroutine")
	fs.Float64Var(&o.rate, "rate", 0, "physics target rate in Hz")
	fs.IntVar(&o.balls, "balls", 0, "number of balls")
	fs.Int64Var(&o.seed, "seed", 0, "scene seed, 0 picks one from the clock")
	fs.StringVar(&o.telemetry, "telemetry", "", "serve websocket telemetry on `addr`")
	fs.BoolVar(&o.mute, "mute", false, "disable impact sounds")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides
func (o *options) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}

	if o.set["threaded"] {
		cfg.Physics.Threaded = o.threaded
	}
	if o.set["rate"] {
		cfg.Physics.TargetRate = o.rate
	}
	if o.set["balls"] {
		cfg.Scene.Balls = o.balls
	}
	if o.set["seed"] {
		cfg.Scene.Seed = o.seed
	}
	if o.telemetry != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Addr = o.telemetry
	}
	if o.mute {
		cfg.Audio.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logFile := setupLogging(opts.debug)
	err = run(opts)
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "simlab: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.writeConfig != "" {
		return config.Write(opts.writeConfig, cfg)
	}

	surface, err := terminal.New(cfg.Render.RowScale)
	if err != nil {
		return err
	}
	defer surface.Fini()
	core.RegisterCrashTerminal(surface)
	defer core.RegisterCrashTerminal(nil)

	seed := cfg.Scene.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Printf("simlab: seed %d, %d balls, threaded %v", seed, cfg.Scene.Balls, cfg.Physics.Threaded)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>32|1))
	sc := scene.NewBouncing(cfg.Scene, surface.WorldBounds(host.HUDRows), rng)

	var manager *engine.Manager
	if cfg.Physics.Threaded {
		physicsBench := engine.NewBenchmark("physics", nil)
		defer physicsBench.Log()
		manager = engine.NewManager(cfg.Physics.EngineConfig(),
			engine.WithBenchmark(physicsBench),
			engine.WithCrashHandler(func(err error) {
				log.Printf("simlab: physics halted: %v", err)
			}),
		)
	}

	hub := service.NewHub()

	var cue *audio.Cue
	if cfg.Audio.Enabled {
		cue = audio.NewCue(cfg.Audio)
		if err := hub.Register(cue); err != nil {
			return err
		}
	}

	game, err := host.New(host.Options{
		Render:  cfg.Render,
		Surface: surface,
		Scene:   sc,
		Manager: manager,
		Cue:     cue,
	})
	if err != nil {
		return err
	}

	if cfg.Telemetry.Enabled {
		server := telemetry.NewServer(cfg.Telemetry, func() any { return game.Snapshot() }, game.Apply)
		if err := hub.Register(server); err != nil {
			return err
		}
	}

	if err := hub.StartAll(); err != nil {
		return err
	}
	defer func() {
		if err := hub.StopAll(); err != nil {
			log.Printf("simlab: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return game.Run(ctx)
}
