package sim

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"

	"github.com/san-kum/particlesim/internal/dynamo"
)

func ensembleFactory(t *testing.T) Factory {
	return func(seed int64) (*Simulator, error) {
		s, err := New(quietConfig())
		if err != nil {
			return nil, err
		}
		for i := int64(0); i <= seed; i++ {
			if _, err := s.AddParticle(dynamo.V(100+float32(i)*30, 300), 5); err != nil {
				return nil, err
			}
		}
		return NewSimulator(s), nil
	}
}

func TestEnsembleRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := NewEnsemble(ensembleFactory(t), 4, 0)
	e.SetLimit(2)

	results, err := e.Run(context.Background(), 15)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Frames != 15 {
			t.Errorf("member %d: expected 15 frames, got %d", i, r.Frames)
		}
		if got := r.Stats[len(r.Stats)-1].Particles; got != i+1 {
			t.Errorf("member %d: expected %d particles, got %d", i, i+1, got)
		}
	}
}

func TestEnsembleFactoryError(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("factory failed")
	base := ensembleFactory(t)
	e := NewEnsemble(func(seed int64) (*Simulator, error) {
		if seed == 2 {
			return nil, boom
		}
		return base(seed)
	}, 3, 0)

	if _, err := e.Run(context.Background(), 5); !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
}
