// Package grid provides the uniform spatial partition used for collision
// broad-phase. Cells store particle indices, never particles.
package grid

import (
	"fmt"
	"math"
)

// CellCapacity is the number of indices a cell can hold. Insertions beyond it
// are dropped for the current rebuild.
const CellCapacity = 4

// Cell is a fixed-size inline buffer with an explicit count.
type Cell struct {
	objects [CellCapacity]uint32
	count   uint8
}

// Add appends idx and reports whether it fit.
func (c *Cell) Add(idx uint32) bool {
	if c.count >= CellCapacity {
		return false
	}
	c.objects[c.count] = idx
	c.count++
	return true
}

// Clear discards the contents by resetting the count only.
func (c *Cell) Clear() { c.count = 0 }

// Remove swap-pops the first occurrence of id. Slot order is not preserved.
func (c *Cell) Remove(id uint32) bool {
	for i := uint8(0); i < c.count; i++ {
		if c.objects[i] == id {
			c.objects[i] = c.objects[c.count-1]
			c.count--
			return true
		}
	}
	return false
}

// Indices returns the occupied slots. The slice aliases the cell.
func (c *Cell) Indices() []uint32 { return c.objects[:c.count] }

// Len is the number of occupied slots, at most the cell capacity.
func (c *Cell) Len() int { return int(c.count) }

// Grid is a cols x rows array of cells sized once and reused every sub-step.
type Grid struct {
	cellSize uint16
	cols     int
	rows     int
	cells    []Cell
	dropped  int
}

// New creates a grid of cols x rows cells, each cellSize world units wide.
func New(cols, rows int, cellSize uint16) *Grid {
	g := &Grid{}
	g.Resize(cols, rows, cellSize)
	return g
}

// NewForWorld sizes the grid to cover a world of the given extent:
// ceil(width/cellSize) x ceil(height/cellSize).
func NewForWorld(width, height float32, cellSize uint16) *Grid {
	cols, rows := Dimensions(width, height, cellSize)
	return New(cols, rows, cellSize)
}

// Dimensions returns the cell counts needed to cover a world.
func Dimensions(width, height float32, cellSize uint16) (cols, rows int) {
	cs := float64(cellSize)
	return int(math.Ceil(float64(width) / cs)), int(math.Ceil(float64(height) / cs))
}

// Resize reallocates cell storage only when the cell count grows.
func (g *Grid) Resize(cols, rows int, cellSize uint16) {
	if cellSize == 0 {
		panic("grid: cell size must be positive")
	}
	n := cols * rows
	if cap(g.cells) >= n {
		g.cells = g.cells[:n]
	} else {
		g.cells = make([]Cell, n)
	}
	g.cols, g.rows, g.cellSize = cols, rows, cellSize
	g.Clear()
}

// Clear resets every cell in O(cells).
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i].count = 0
	}
	g.dropped = 0
}

// CellCoords maps a world position to its cell: (floor(x/size), floor(y/size)).
func (g *Grid) CellCoords(x, y float32) (int, int) {
	cs := float64(g.cellSize)
	return int(math.Floor(float64(x) / cs)), int(math.Floor(float64(y) / cs))
}

// AddObject inserts index into the cell containing (x, y). The caller must
// keep positions inside the grid; out-of-range coordinates panic. A full cell
// drops the index and returns false.
func (g *Grid) AddObject(x, y float32, index uint32) bool {
	cx, cy := g.CellCoords(x, y)
	if !g.Cell(cx, cy).Add(index) {
		g.dropped++
		return false
	}
	return true
}

// Remove deletes index from the cell containing (x, y).
func (g *Grid) Remove(x, y float32, index uint32) bool {
	cx, cy := g.CellCoords(x, y)
	return g.Cell(cx, cy).Remove(index)
}

// Cell returns the cell at column cx, row cy.
func (g *Grid) Cell(cx, cy int) *Cell {
	if cx < 0 || cx >= g.cols || cy < 0 || cy >= g.rows {
		panic(fmt.Sprintf("grid: cell (%d,%d) outside %dx%d grid", cx, cy, g.cols, g.rows))
	}
	return &g.cells[cy*g.cols+cx]
}

// Cols is the number of cell columns.
func (g *Grid) Cols() int { return g.cols }

// Rows is the number of cell rows.
func (g *Grid) Rows() int { return g.rows }

// CellSize is the cell edge in world units.
func (g *Grid) CellSize() uint16 { return g.cellSize }

// Dropped counts inserts lost to full cells since the last Clear.
func (g *Grid) Dropped() int { return g.dropped }

// InBounds reports whether (cx, cy) addresses a cell of the grid.
func (g *Grid) InBounds(cx, cy int) bool {
	return cx >= 0 && cx < g.cols && cy >= 0 && cy < g.rows
}

// Count returns the number of stored indices across all cells.
func (g *Grid) Count() int {
	n := 0
	for i := range g.cells {
		n += int(g.cells[i].count)
	}
	return n
}
