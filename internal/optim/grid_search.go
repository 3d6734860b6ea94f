package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
)

// Param sets one named tunable on a config.
type Param func(c *config.Config, v float64)

// Params lists the settings a search can vary.
var Params = map[string]Param{
	"sub_steps":          func(c *config.Config, v float64) { c.Physics.SubSteps = int(v) },
	"collision_response": func(c *config.Config, v float64) { c.Physics.CollisionResponse = float32(v) },
	"drag":               func(c *config.Config, v float64) { c.Physics.Drag = float32(v) },
	"standard_radius":    func(c *config.Config, v float64) { c.Physics.StandardRadius = float32(v) },
	"update_rate":        func(c *config.Config, v float64) { c.Physics.UpdateRate = v },
	"restitution":        func(c *config.Config, v float64) { c.World.Restitution = float32(v) },
}

// ParamNames returns the searchable setting names, sorted.
func ParamNames() []string {
	names := make([]string, 0, len(Params))
	for name := range Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d params but %d ranges", len(params), len(ranges))
	}
	for _, name := range params {
		if _, ok := Params[name]; !ok {
			return nil, fmt.Errorf("unknown param: %s (available: %v)", name, ParamNames())
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs one experiment per grid point on a copy of base and returns
// the point minimising metricName, plus every trial in visiting order.
// Points whose config is invalid or whose run fails are recorded and
// skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	registry *experiment.Registry,
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if !registry.Has(metricName) {
		return nil, 0, nil, fmt.Errorf("unknown metric: %s (available: %v)", metricName, registry.ListMetrics())
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(point map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		val, err := g.evaluate(ctx, base, registry, metricName, point)
		trials = append(trials, Trial{Params: point, Value: val, Err: err})
		if err == nil && val < best {
			best = val
			bestParams = point
		}
		return nil
	})
	if err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, fmt.Errorf("no grid point completed")
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) evaluate(
	ctx context.Context,
	base *config.Config,
	registry *experiment.Registry,
	metricName string,
	point map[string]float64,
) (float64, error) {
	cfg := *base
	for name, v := range point {
		Params[name](&cfg, v)
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	exp := experiment.New(&cfg, nil)
	if err := exp.Setup(registry, []string{metricName}); err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	return result.Metrics[metricName], nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64) error,
) error {
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
