package host

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/simlab/audio"
	"github.com/lixenwraith/simlab/config"
	"github.com/lixenwraith/simlab/engine"
	"github.com/lixenwraith/simlab/scene"
	"github.com/lixenwraith/simlab/telemetry"
	"github.com/lixenwraith/simlab/terminal"
)

const (
	// HUDRows is the number of terminal rows below the world reserved for the status line
	HUDRows = 1

	minTargetRate = 15.0
	maxTargetRate = 960.0
)

var (
	ErrMissingSurface = errors.New("host: surface is required")
	ErrMissingScene   = errors.New("host: scene is required")
	ErrStartFailed    = errors.New("host: physics manager failed to start")
)

var hudStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)

// Options wires a Game
// A nil Manager selects direct mode: the scene steps on the render loop
type Options struct {
	Render  config.Render
	Surface *terminal.Surface
	Scene   *scene.Scene
	Manager *engine.Manager
	Cue     *audio.Cue
	Clock   engine.Clock
}

// Game is the foreground loop: input, rendering, and in direct mode, stepping
type Game struct {
	surface *terminal.Surface
	scene   *scene.Scene
	manager *engine.Manager
	cue     *audio.Cue
	cfg     config.Render
	clock   engine.Clock

	// Guards the scene: the manager's data lock when threaded
	lock sync.Locker

	paused    atomic.Bool // direct mode
	lastFrame time.Time
	maxDelta  float64

	frames      uint64
	fpsWindow   time.Time
	fpsFrames   int
	renderFPS   float64
	drawBench   *engine.Benchmark
	lastEnergy  float64
	lastContact int
}

// New validates options and builds a game
func New(opts Options) (*Game, error) {
	if opts.Surface == nil {
		return nil, ErrMissingSurface
	}
	if opts.Scene == nil {
		return nil, ErrMissingScene
	}
	if opts.Clock == nil {
		opts.Clock = engine.NewTimeProvider()
	}
	if opts.Render.FrameRate < 1 {
		opts.Render.FrameRate = config.Default().Render.FrameRate
	}
	if !(opts.Render.TimeScale > 0) {
		opts.Render.TimeScale = 1
	}

	g := &Game{
		surface:   opts.Surface,
		scene:     opts.Scene,
		manager:   opts.Manager,
		cue:       opts.Cue,
		cfg:       opts.Render,
		clock:     opts.Clock,
		maxDelta:  engine.DefaultMaxDeltaTime,
		drawBench: engine.NewBenchmark("draw", opts.Clock),
	}

	if g.manager != nil {
		g.lock = g.manager.DataLock()
		g.maxDelta = g.manager.Config().MaxDeltaTime
	} else {
		g.lock = &sync.Mutex{}
	}

	if g.cue != nil {
		g.scene.OnImpact(func(speed float64) { g.cue.Impact(speed) })
	}
	return g, nil
}

// Threaded reports whether a physics manager drives the scene
func (g *Game) Threaded() bool {
	return g.manager != nil
}

// Run drives the game until quit input, ctx cancellation, or a physics failure
// The manager is stopped on every exit path
func (g *Game) Run(ctx context.Context) error {
	g.resize()

	if g.manager != nil {
		g.manager.SetStepper(g.scene)
		if !g.manager.Start() {
			return ErrStartFailed
		}
		defer g.manager.Stop()
	}
	defer g.drawBench.Log()

	now := g.clock.Now()
	g.lastFrame, g.fpsWindow = now, now

	ticker := time.NewTicker(time.Second / time.Duration(g.cfg.FrameRate))
	defer ticker.Stop()

	events := g.surface.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !g.handleInput(ev) {
				log.Printf("host: quit after %d frames", g.frames)
				return nil
			}

		case <-ticker.C:
			if err := g.frame(); err != nil {
				return err
			}
		}
	}
}

// frame advances the direct-mode scene and redraws
func (g *Game) frame() error {
	if g.manager != nil && g.manager.IsStopped() {
		if err := g.manager.Err(); err != nil {
			return fmt.Errorf("host: physics stopped: %w", err)
		}
		return ErrStartFailed
	}

	now := g.clock.Now()
	dt := min(now.Sub(g.lastFrame).Seconds(), g.maxDelta)
	g.lastFrame = now

	if g.manager == nil && !g.paused.Load() && dt > 0 {
		g.withScene(func() { g.scene.Step(dt * g.cfg.TimeScale) })
	}

	g.drawBench.Measure(g.draw)

	g.frames++
	g.fpsFrames++
	if elapsed := now.Sub(g.fpsWindow).Seconds(); elapsed >= 1 {
		g.renderFPS = float64(g.fpsFrames) / elapsed
		g.fpsFrames = 0
		g.fpsWindow = now
	}
	return nil
}

func (g *Game) withScene(fn func()) {
	g.lock.Lock()
	defer g.lock.Unlock()
	fn()
}

func (g *Game) draw() {
	g.surface.Clear()

	g.withScene(func() {
		for _, b := range g.scene.Bodies() {
			g.surface.FillCircle(b.Circle, terminal.Style(b.Color))
		}
		g.lastEnergy = g.scene.KineticEnergy()
		g.lastContact = len(g.scene.Contacts())
	})

	g.drawHUD()
	g.surface.Show()
}

func (g *Game) drawHUD() {
	w, h := g.surface.Size()
	y := h - HUDRows
	for x := range w {
		g.surface.Plot(x, y, ' ', hudStyle)
	}

	mode := "direct"
	state := "running"
	if g.IsPaused() {
		state = "paused"
	}
	left := fmt.Sprintf(" simlab %s %s", mode, state)
	right := fmt.Sprintf("fps %5.1f  E %8.1f  hits %2d ", g.renderFPS, g.lastEnergy, g.lastContact)

	if g.manager != nil {
		st := g.manager.Stats()
		step := "fixed"
		if !st.FixedTimeStep {
			step = "variable"
		}
		left = fmt.Sprintf(" simlab threaded %s %.0fHz %s", step, st.TargetFPS, st.State)
		right = fmt.Sprintf("fps %5.1f  ups %6.1f  updates %d  E %8.1f  hits %2d ",
			g.renderFPS, st.ActualFPS, st.TotalUpdates, g.lastEnergy, g.lastContact)
	}

	g.surface.Text(0, y, left, hudStyle)
	g.surface.TextRight(y, right, hudStyle)
}

// handleInput returns false to quit
func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			g.SetPaused(!g.IsPaused())
		case 'f':
			if g.manager != nil {
				g.manager.SetFixedTimeStep(!g.manager.Config().UseFixedTimeStep)
			}
		case '+', '=':
			g.scaleRate(2)
		case '-':
			g.scaleRate(0.5)
		case 'm':
			if g.cue != nil {
				g.cue.SetMuted(!g.cue.Muted())
			}
		case 'r':
			g.surface.Sync()
		}

	case *tcell.EventResize:
		g.resize()
		g.surface.Sync()
	}

	return true
}

func (g *Game) scaleRate(factor float64) {
	if g.manager == nil {
		return
	}
	rate := g.manager.TargetFPS() * factor
	g.manager.SetTargetRate(min(max(rate, minTargetRate), maxTargetRate))
}

// resize fits the scene to the surface minus the HUD
func (g *Game) resize() {
	bounds := g.surface.WorldBounds(HUDRows)
	g.withScene(func() { g.scene.Resize(bounds) })
}

// IsPaused reports whether the simulation is paused
func (g *Game) IsPaused() bool {
	if g.manager != nil {
		return g.manager.IsPaused()
	}
	return g.paused.Load()
}

// SetPaused pauses or resumes the simulation
func (g *Game) SetPaused(paused bool) {
	if g.manager != nil {
		if paused {
			g.manager.Pause()
		} else {
			g.manager.Resume()
		}
		return
	}
	g.paused.Store(paused)
}

// Apply executes a remote control command
func (g *Game) Apply(cmd telemetry.Command) {
	if cmd.Pause != nil {
		g.SetPaused(*cmd.Pause)
	}
	if g.manager == nil {
		return
	}
	if cmd.TargetRate != nil {
		g.manager.SetTargetRate(*cmd.TargetRate)
	}
	if cmd.FixedTimeStep != nil {
		g.manager.SetFixedTimeStep(*cmd.FixedTimeStep)
	}
}

// Snapshot returns a telemetry frame; safe from any goroutine
func (g *Game) Snapshot() telemetry.Frame {
	f := telemetry.Frame{Time: g.clock.Now()}
	var steps uint64
	g.withScene(func() {
		f.Energy = g.scene.KineticEnergy()
		f.Bodies = len(g.scene.Bodies())
		steps = g.scene.Steps()
	})

	if g.manager != nil {
		f.Stats = g.manager.Stats()
		f.Metrics = g.manager.Status().Snapshot()
		return f
	}

	state := engine.Running
	if g.paused.Load() {
		state = engine.Paused
	}
	f.Stats = engine.PerformanceStats{
		TargetFPS:    float64(g.cfg.FrameRate),
		TotalUpdates: steps,
		State:        state,
	}
	return f
}
