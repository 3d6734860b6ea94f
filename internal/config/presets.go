package config

import "sort"

func preset(name string, tweak func(c *Config)) *Config {
	c := DefaultConfig()
	c.Preset = name
	tweak(c)
	return c
}

var Presets = map[string]*Config{
	"attract": preset("attract", func(c *Config) {}),
	"box": preset("box", func(c *Config) {
		c.Physics.AttractionFactor = 0
		c.Physics.Gravity = Point{Y: 1000}
		c.Physics.Drag = 0.9995
		c.Spawn.Origin = Point{X: 200, Y: 80}
		c.Spawn.AngleDeg = 0
	}),
	"disk": preset("disk", func(c *Config) {
		c.World.Boundary = "circle"
		c.Physics.AttractionFactor = 0
		c.Physics.Gravity = Point{Y: 1000}
		c.Spawn.Origin = Point{X: 400, Y: 120}
		c.Spawn.AngleDeg = 0
		c.Spawn.SpreadDeg = 60
		c.Spawn.MaxParticles = 1000
	}),
	"fountain": preset("fountain", func(c *Config) {
		c.Physics.AttractionFactor = 0
		c.Physics.Gravity = Point{Y: 600}
		c.Spawn.Origin = Point{X: 400, Y: 520}
		c.Spawn.AngleDeg = -90
		c.Spawn.SpreadDeg = 35
		c.Spawn.SweepHz = 0.5
		c.Spawn.Speed = 650
		c.Spawn.RadiusJitter = 2
		c.Spawn.HueStep = 1.5
	}),
	"bounce": preset("bounce", func(c *Config) {
		c.World.Restitution = 0.8
		c.Physics.AttractionFactor = 0
		c.Physics.Gravity = Point{Y: 1000}
		c.Physics.Drag = 1
		c.Spawn.MaxParticles = 400
		c.Spawn.PerFrame = 1
		c.Spawn.Interval = 2
		c.Spawn.Speed = 450
	}),
}

// GetPreset returns a copy of the named preset, or nil when unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
