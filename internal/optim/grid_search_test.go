package optim

import (
	"context"
	"testing"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
)

func smallConfig() *config.Config {
	cfg := config.GetPreset("box")
	cfg.Spawn.MaxParticles = 30
	cfg.Run.Frames = 20
	return cfg
}

func TestNewGridSearchErrors(t *testing.T) {
	if _, err := NewGridSearch([]string{"drag"}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := NewGridSearch([]string{"warp"}, [][]float64{{1}}); err == nil {
		t.Error("expected unknown param error")
	}
}

func TestSearch(t *testing.T) {
	gs, err := NewGridSearch(
		[]string{"drag", "sub_steps"},
		[][]float64{{1, 0.95}, {0, 2}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	best, value, trials, err := gs.Search(context.Background(), smallConfig(), experiment.NewRegistry(), "energy")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(trials) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(trials))
	}

	failed := 0
	lowest := value
	for _, tr := range trials {
		if tr.Err != nil {
			failed++
			if tr.Params["sub_steps"] != 0 {
				t.Errorf("unexpected failure at %v: %v", tr.Params, tr.Err)
			}
			continue
		}
		if tr.Value < lowest {
			lowest = tr.Value
		}
	}
	if failed != 2 {
		t.Errorf("expected 2 invalid points, got %d", failed)
	}
	if lowest != value {
		t.Errorf("expected best %v to be the minimum, got %v", value, lowest)
	}
	if best["sub_steps"] != 2 {
		t.Errorf("expected best point to be valid, got %v", best)
	}
}

func TestSearchUnknownMetric(t *testing.T) {
	gs, _ := NewGridSearch([]string{"drag"}, [][]float64{{1}})
	if _, _, _, err := gs.Search(context.Background(), smallConfig(), experiment.NewRegistry(), "nope"); err == nil {
		t.Error("expected unknown metric error")
	}
}

func TestSearchCanceled(t *testing.T) {
	gs, _ := NewGridSearch([]string{"drag"}, [][]float64{{1, 0.99}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, trials, err := gs.Search(ctx, smallConfig(), experiment.NewRegistry(), "energy"); err == nil || len(trials) != 0 {
		t.Errorf("expected cancellation before any trial, got %d trials, err %v", len(trials), err)
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v at %d, got %v", want[i], i, got[i])
		}
	}
	if got := Linspace(3, 9, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("expected [3], got %v", got)
	}
}
