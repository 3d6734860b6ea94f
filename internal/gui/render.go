package gui

import (
	"fmt"

	raygui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/particlesim/internal/constraint"
	"github.com/san-kum/particlesim/internal/dynamo"
)

// Viewport maps world coordinates onto the screen with a uniform scale.
type Viewport struct {
	Scale            float32
	OffsetX, OffsetY float32
}

// FitViewport centres a world of w x h inside a screen of sw x sh, leaving
// margin pixels on the tighter axis.
func FitViewport(w, h float32, sw, sh int, margin float32) Viewport {
	availW := float32(sw) - 2*margin
	availH := float32(sh) - 2*margin
	scale := min(availW/w, availH/h)
	return Viewport{
		Scale:   scale,
		OffsetX: (float32(sw) - w*scale) / 2,
		OffsetY: (float32(sh) - h*scale) / 2,
	}
}

func (v Viewport) ToScreen(p dynamo.Vec2) rl.Vector2 {
	return rl.NewVector2(v.OffsetX+p.X*v.Scale, v.OffsetY+p.Y*v.Scale)
}

func (v Viewport) ToWorld(x, y float32) dynamo.Vec2 {
	return dynamo.V((x-v.OffsetX)/v.Scale, (y-v.OffsetY)/v.Scale)
}

func toColor(c dynamo.RGB8) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, 255)
}

func (a *App) drawSim() {
	if a.ShowGrid {
		a.drawGrid()
	}
	a.drawBoundary()

	for _, p := range a.Sys.Particles() {
		rl.DrawCircleV(a.View.ToScreen(p.Position), max(1, p.Radius*a.View.Scale), toColor(p.Color))
	}

	c := a.Sys.Config()
	if c.AttractionFactor != 0 {
		pt := a.View.ToScreen(c.AttractionPoint)
		col := ColAccent
		if c.AttractionFactor < 0 {
			col = rl.Red
		}
		rl.DrawCircleLinesV(pt, 8, col)
		rl.DrawLineV(rl.NewVector2(pt.X-12, pt.Y), rl.NewVector2(pt.X+12, pt.Y), col)
		rl.DrawLineV(rl.NewVector2(pt.X, pt.Y-12), rl.NewVector2(pt.X, pt.Y+12), col)
	}
}

func (a *App) drawBoundary() {
	switch b := a.Sys.Boundary().(type) {
	case constraint.Rect:
		lo := a.View.ToScreen(b.Min)
		hi := a.View.ToScreen(b.Max)
		rl.DrawRectangleLinesEx(rl.NewRectangle(lo.X, lo.Y, hi.X-lo.X, hi.Y-lo.Y), 1, ColAccent)
	case constraint.Circle:
		rl.DrawCircleLinesV(a.View.ToScreen(b.Center), b.Radius*a.View.Scale, ColAccent)
	}
}

// drawGrid outlines the broad-phase cells, shading the interior cells that
// hold particles.
func (a *App) drawGrid() {
	g := a.Sys.Grid()
	size := float32(g.CellSize())
	for cy := 0; cy < g.Rows(); cy++ {
		for cx := 0; cx < g.Cols(); cx++ {
			lo := a.View.ToScreen(dynamo.V(float32(cx)*size, float32(cy)*size))
			side := size * a.View.Scale
			if n := g.Cell(cx, cy).Len(); n > 0 {
				rl.DrawRectangleV(lo, rl.NewVector2(side, side), rl.NewColor(40, 40, 40, uint8(40*n)))
			}
			rl.DrawRectangleLinesEx(rl.NewRectangle(lo.X, lo.Y, side, side), 1, ColGrid)
		}
	}
}

// DrawTelemetry plots the kinetic energy history in the top right corner.
func (a *App) DrawTelemetry() {
	const (
		x, y = 980, 80
		w, h = 260, 80
	)
	rl.DrawRectangleLines(x, y, w, h, ColGrid)
	a.drawText("KINETIC ENERGY", x, y-18, 12, ColTextDim)
	if len(a.Telemetry) < 2 {
		return
	}
	hi := a.Telemetry[0]
	for _, v := range a.Telemetry {
		hi = max(hi, v)
	}
	if hi <= 0 {
		hi = 1
	}
	step := float32(w) / float32(telemetryLimit-1)
	prev := rl.NewVector2(x, y+h-float32(a.Telemetry[0]/hi)*h)
	for i := 1; i < len(a.Telemetry); i++ {
		cur := rl.NewVector2(x+float32(i)*step, y+h-float32(a.Telemetry[i]/hi)*h)
		rl.DrawLineV(prev, cur, ColAccent)
		prev = cur
	}
}

// slider is one live control in the side panel.
type slider struct {
	label    string
	min, max float32
	get      func(a *App) float32
	set      func(a *App, v float32)
}

var sliders = []slider{
	{"gravity", -2000, 2000,
		func(a *App) float32 { return a.Sys.Config().Gravity.Y },
		func(a *App, v float32) { a.Sys.SetGravity(dynamo.V(a.Sys.Config().Gravity.X, v)) }},
	{"drag", 0.9, 1,
		func(a *App) float32 { return a.Sys.Config().Drag },
		func(a *App, v float32) { a.report(a.Sys.SetDrag(v)) }},
	{"attraction", -100, 100,
		func(a *App) float32 { return a.Sys.Config().AttractionFactor },
		func(a *App, v float32) { a.Sys.SetAttractionFactor(v) }},
	{"sub-steps", 1, 16,
		func(a *App) float32 { return float32(a.Sys.Config().SubSteps) },
		func(a *App, v float32) { a.report(a.Sys.SetSubSteps(int(v + 0.5))) }},
}

// DrawControls draws the slider panel and applies changed values. It
// returns true when the mouse is over the panel so clicks there do not move
// the attraction point.
func (a *App) DrawControls() bool {
	const (
		panelX = 980
		panelY = 200
		width  = 200
	)
	y := float32(panelY)
	for _, s := range sliders {
		cur := s.get(a)
		a.drawText(s.label, panelX, int(y), 12, ColTextDim)
		y += 16
		next := raygui.SliderBar(rl.Rectangle{X: panelX, Y: y, Width: width, Height: 16}, "", "", cur, s.min, s.max)
		a.drawText(fmt.Sprintf("%.4g", cur), panelX+width+10, int(y), 12, ColText)
		if next != cur {
			s.set(a, next)
		}
		y += 28
	}
	panel := rl.Rectangle{X: panelX, Y: panelY, Width: width, Height: y - panelY}
	return rl.CheckCollisionPointRec(rl.GetMousePosition(), panel)
}
