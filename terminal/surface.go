// Package terminal provides the tcell-backed drawing surface of the simulator.
//
// World coordinates map to cells with one unit per column and RowScale units
// per row, compensating for terminal cells being roughly twice as tall as wide.
package terminal

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/simlab/physics"
	"github.com/lixenwraith/simlab/vmath"
)

// Glyphs used for filled bodies
const (
	FillRune  = '█'
	PointRune = '●'
)

// Surface wraps a tcell.Screen with world-space drawing helpers
type Surface struct {
	screen   tcell.Screen
	rowScale float64

	events chan tcell.Event
	quit   chan struct{}
	once   sync.Once
}

// New opens the controlling terminal
func New(rowScale float64) (*Surface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewWithScreen(screen, rowScale)
}

// NewWithScreen initializes screen and starts event delivery
// Tests pass tcell.NewSimulationScreen
func NewWithScreen(screen tcell.Screen, rowScale float64) (*Surface, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	if !(rowScale > 0) {
		rowScale = 1
	}
	screen.HideCursor()

	s := &Surface{
		screen:   screen,
		rowScale: rowScale,
		events:   make(chan tcell.Event, 100),
		quit:     make(chan struct{}),
	}
	go screen.ChannelEvents(s.events, s.quit)
	return s, nil
}

// Events delivers input and resize events; closed after Fini
func (s *Surface) Events() <-chan tcell.Event {
	return s.events
}

// Screen exposes the underlying screen
func (s *Surface) Screen() tcell.Screen {
	return s.screen
}

// Fini restores the terminal; safe to call multiple times
func (s *Surface) Fini() {
	s.once.Do(func() {
		close(s.quit)
		s.screen.Fini()
	})
}

// Size returns the terminal size in cells
func (s *Surface) Size() (int, int) {
	return s.screen.Size()
}

// WorldBounds returns the world-space rectangle covered by rows [0, h-reserved)
func (s *Surface) WorldBounds(reservedRows int) physics.Bounds {
	w, h := s.screen.Size()
	h = max(h-reservedRows, 1)
	return physics.Bounds{Width: float64(w), Height: float64(h) * s.rowScale}
}

// ToCell maps a world point to its terminal cell
func (s *Surface) ToCell(p vmath.Vec2) (int, int) {
	return int(math.Floor(p[0])), int(math.Floor(p[1] / s.rowScale))
}

// Clear blanks the back buffer
func (s *Surface) Clear() {
	s.screen.Clear()
}

// Show flushes the back buffer
func (s *Surface) Show() {
	s.screen.Show()
}

// Sync forces a full redraw
func (s *Surface) Sync() {
	s.screen.Sync()
}

// Style converts a colour to a foreground style
func Style(c colorful.Color) tcell.Style {
	r, g, b := c.Clamped().RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

// Plot sets one cell; out-of-range cells are ignored by the screen
func (s *Surface) Plot(x, y int, r rune, style tcell.Style) {
	s.screen.SetContent(x, y, r, nil, style)
}

// Text draws str from (x, y) and returns the column after the last rune
func (s *Surface) Text(x, y int, str string, style tcell.Style) int {
	for _, r := range str {
		s.screen.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
	return x
}

// TextRight draws str ending at the right edge of row y
func (s *Surface) TextRight(y int, str string, style tcell.Style) {
	w, _ := s.screen.Size()
	s.Text(w-runewidth.StringWidth(str), y, str, style)
}

// FillCircle rasterizes c by cell-center sampling; circles smaller than a cell draw a point
func (s *Surface) FillCircle(c physics.Circle, style tcell.Style) {
	r := c.Radius
	x0, y0 := s.ToCell(c.Center.Sub(vmath.Vec2{r, r}))
	x1, y1 := s.ToCell(c.Center.Add(vmath.Vec2{r, r}))

	drawn := false
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			center := vmath.Vec2{float64(x) + 0.5, (float64(y) + 0.5) * s.rowScale}
			if vmath.DistanceSq(center, c.Center) <= r*r {
				s.screen.SetContent(x, y, FillRune, nil, style)
				drawn = true
			}
		}
	}
	if !drawn {
		x, y := s.ToCell(c.Center)
		s.screen.SetContent(x, y, PointRune, nil, style)
	}
}
