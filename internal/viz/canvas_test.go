package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/particlesim/internal/dynamo"
)

func TestCanvasSetAndUnset(t *testing.T) {
	c := NewCanvas(2, 1)

	c.Set(0, 0)
	c.Set(1, 3)
	if c.Grid[0][0] != brailleBase|0x1|0x80 {
		t.Errorf("expected dots 1 and 8, got %U", c.Grid[0][0])
	}

	c.Unset(0, 0)
	if c.Grid[0][0] != brailleBase|0x80 {
		t.Errorf("expected dot 8 only, got %U", c.Grid[0][0])
	}

	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 4)
	if c.Grid[0][1] != brailleBase {
		t.Errorf("out of range writes must be ignored, got %U", c.Grid[0][1])
	}
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(3, 2)
	c.SetColor(2, 5, dynamo.RGB8{R: 9})

	c.Clear()

	for _, row := range c.Grid {
		for _, r := range row {
			if r != brailleBase {
				t.Fatalf("expected blank canvas, got %U", r)
			}
		}
	}
	if c.Colors[1][1] != dynamo.White {
		t.Errorf("expected colour reset, got %v", c.Colors[1][1])
	}
}

func TestFillDiscColorsCells(t *testing.T) {
	c := NewCanvas(10, 5)
	red := dynamo.RGB8{R: 255}

	c.FillDisc(10, 10, 2, red)

	lit := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			row, col := y/4, x/2
			if c.Grid[row][col]&pixelMap[y%4][x%2] != 0 {
				lit++
			}
		}
	}
	// lattice points with dx^2+dy^2 <= 4
	if lit != 13 {
		t.Errorf("expected 13 lit dots, got %d", lit)
	}
	if c.Colors[2][5] != red {
		t.Errorf("expected centre cell red, got %v", c.Colors[2][5])
	}
}

func TestDrawLineAndCircle(t *testing.T) {
	c := NewCanvas(10, 5)

	c.DrawLine(0, 0, 19, 0)
	for col := 0; col < 10; col++ {
		if c.Grid[0][col]&(0x1|0x8) != 0x1|0x8 {
			t.Fatalf("expected top row lit at column %d, got %U", col, c.Grid[0][col])
		}
	}

	c.Clear()
	c.DrawCircle(10, 10, 4)
	for _, p := range [][2]int{{14, 10}, {6, 10}, {10, 14}, {10, 6}} {
		if c.Grid[p[1]/4][p[0]/2]&pixelMap[p[1]%4][p[0]%2] == 0 {
			t.Errorf("expected circle point %v lit", p)
		}
	}
	if c.Grid[10/4][10/2]&pixelMap[10%4][10%2] != 0 {
		t.Error("circle outline must not fill its centre")
	}
}

func TestStringShape(t *testing.T) {
	c := NewCanvas(4, 3)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 4 {
			t.Errorf("expected 4 runes per line, got %d", n)
		}
	}
	if !strings.Contains(c.Render(), string(rune(brailleBase))) {
		t.Error("expected rendered output to contain blank braille cells")
	}
}
