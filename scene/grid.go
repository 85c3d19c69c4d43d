package scene

import (
	"math"

	"github.com/lixenwraith/simlab/vmath"
)

// Grid is a dense uniform grid of body indices over the scene bounds, rebuilt every step
// Cell slices keep their capacity across Clear so steady-state steps do not allocate
type Grid struct {
	Width    int
	Height   int
	CellSize float64
	Cells    [][]int // 1D array: index = y*Width + x
}

// NewGrid creates a grid covering w x h world units with square cells of cellSize
func NewGrid(w, h, cellSize float64) *Grid {
	g := &Grid{}
	g.Resize(w, h, cellSize)
	return g
}

// Resize recomputes dimensions, clearing all data
func (g *Grid) Resize(w, h, cellSize float64) {
	if !(cellSize > 0) {
		cellSize = 1
	}
	g.CellSize = cellSize
	g.Width = max(1, int(math.Ceil(w/cellSize)))
	g.Height = max(1, int(math.Ceil(h/cellSize)))
	g.Cells = make([][]int, g.Width*g.Height)
}

// CellOf returns the cell containing p, clamped to the grid
func (g *Grid) CellOf(p vmath.Vec2) (int, int) {
	x, y := vmath.ToCell(p, g.CellSize)
	return min(max(x, 0), g.Width-1), min(max(y, 0), g.Height-1)
}

// Add inserts body index i at the cell containing p
func (g *Grid) Add(i int, p vmath.Vec2) {
	x, y := g.CellOf(p)
	idx := y*g.Width + x
	g.Cells[idx] = append(g.Cells[idx], i)
}

// GetAllAt returns a view of the indices at (x, y), nil when empty or out of bounds
// The view is invalidated by the next Clear
func (g *Grid) GetAllAt(x, y int) []int {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return nil
	}
	return g.Cells[y*g.Width+x]
}

// Clear empties every cell, keeping capacity
func (g *Grid) Clear() {
	for i := range g.Cells {
		g.Cells[i] = g.Cells[i][:0]
	}
}

// neighborOffsets covers the cell itself and its 8 neighbours
var neighborOffsets = [9][2]int{
	{0, 0}, {1, 0}, {-1, 0},
	{0, 1}, {0, -1}, {1, 1},
	{-1, 1}, {1, -1}, {-1, -1},
}

// Pairs calls fn once for every unordered pair of indices in the same or adjacent cells
func (g *Grid) Pairs(fn func(i, j int)) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			for _, i := range g.Cells[y*g.Width+x] {
				for _, off := range neighborOffsets {
					for _, j := range g.GetAllAt(x+off[0], y+off[1]) {
						// Each pair is seen from both sides; keep one
						if j <= i {
							continue
						}
						fn(i, j)
					}
				}
			}
		}
	}
}
