package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/marketsim/xerrors"
)

// scriptedSource 按顺序回放预设样本.
type scriptedSource struct {
	normals  []float64
	uniforms []float64
}

func (s *scriptedSource) NormFloat64() float64 {
	v := s.normals[0]
	s.normals = s.normals[1:]
	return v
}

func (s *scriptedSource) Float64() float64 {
	v := s.uniforms[0]
	s.uniforms = s.uniforms[1:]
	return v
}

func TestPoissonRateMatchProbability(t *testing.T) {
	p := NewPoissonRate(0.005, 140, 1.5)

	if got, want := p.MatchProbability(0), 0.7; math.Abs(got-want) > 1e-12 {
		t.Errorf("at-the-money probability = %v, want %v", got, want)
	}

	prev := p.MatchProbability(-10)
	for offset := -10.0; offset <= 10; offset += 0.25 {
		got := p.MatchProbability(offset)
		if got < 0 || got > 1 {
			t.Fatalf("probability %v out of [0,1] at offset %v", got, offset)
		}
		if got > prev {
			t.Fatalf("probability increased from %v to %v at offset %v", prev, got, offset)
		}
		prev = got
	}

	if got := p.MatchProbability(-5); got != 1 {
		t.Errorf("crossing probability = %v, want clamp to 1", got)
	}

	zero := NewPoissonRate(0.005, 0, 1.5)
	if got := zero.MatchProbability(-3); got != 0 {
		t.Errorf("zero intensity probability = %v, want 0", got)
	}
}

func TestPriceProcessIncrements(t *testing.T) {
	const dt = 0.01
	sq := math.Sqrt(dt)

	tests := []struct {
		name    string
		process PriceProcess
		x       float64
		want    float64
	}{
		{"brownian", NewBrownianMotion(dt, 2), 100, 2 * sq * 0.5},
		{"brownian drift", NewBrownianMotionWithDrift(dt, 3, 2), 100, 3*dt + 2*sq*0.5},
		{"ou", NewOrnsteinUhlenbeck(dt, 1.5, 2), 4, -1.5*4*dt + 2*sq*0.5},
		{"ou target", NewOrnsteinUhlenbeckWithDrift(dt, 1.5, 10, 2), 4, 1.5*(10-4)*dt + 2*sq*0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scriptedSource{normals: []float64{0.5}}
			got := tt.process.SampleIncrement(src, tt.x)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("increment = %v, want %v", got, tt.want)
			}
			if len(src.normals) != 0 {
				t.Errorf("expected exactly one normal draw")
			}
		})
	}
}

func TestBrownianMotionWithDriftSetDrift(t *testing.T) {
	b := NewBrownianMotionWithDrift(0.5, 0, 0)
	b.SetDrift(4)
	if b.Drift() != 4 {
		t.Fatalf("Drift() = %v, want 4", b.Drift())
	}
	if got := b.SampleIncrement(&scriptedSource{normals: []float64{1}}, 0); got != 2 {
		t.Errorf("increment = %v, want 2", got)
	}
}

func TestEngineInnovate(t *testing.T) {
	src := &scriptedSource{normals: []float64{1, -1}}
	e, err := NewEngine(0.25, 100, src, NewBrownianMotion(0.25, 2), DefaultPoissonRate())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if inc := e.Innovate(); inc != 1 {
		t.Errorf("increment = %v, want 1", inc)
	}
	if e.Time() != 0.25 || e.Price() != 101 {
		t.Errorf("after innovate time=%v price=%v", e.Time(), e.Price())
	}
	e.Innovate()
	if e.Time() != 0.5 || e.Price() != 100 || e.InitialPrice() != 100 {
		t.Errorf("after second innovate time=%v price=%v", e.Time(), e.Price())
	}
}

func TestEngineTryExecuteOffsets(t *testing.T) {
	src := &scriptedSource{uniforms: []float64{0.99, 0.0, 0.5}}
	fills := NewPoissonRate(1, 0.6, 0)
	e, err := NewEngine(0.1, 100, src, NewBrownianMotion(0.1, 0), fills)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ask := e.TryExecuteAsk(101.5)
	if ask.Offset != 1.5 || ask.Filled {
		t.Errorf("ask = %+v, want offset 1.5 unfilled", ask)
	}
	bid := e.TryExecuteBid(101)
	if bid.Offset != -1 || !bid.Filled {
		t.Errorf("bid = %+v, want offset -1 filled", bid)
	}
	if f := e.TryExecuteBid(99); !f.Filled {
		t.Errorf("uniform 0.5 < p 0.6 should fill")
	}
	if e.Time() != 0 || e.Price() != 100 {
		t.Errorf("fill attempts must not mutate the engine")
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	src := NewSource(1)
	bm := NewBrownianMotion(0.005, 2)
	fills := DefaultPoissonRate()

	for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if _, err := NewEngine(dt, 100, src, bm, fills); !errors.Is(err, xerrors.ErrNonPositiveTimeStep) {
			t.Errorf("dt=%v: err = %v, want ErrNonPositiveTimeStep", dt, err)
		}
	}
	if _, err := NewEngine(0.005, 100, nil, bm, fills); !errors.Is(err, xerrors.ErrNilCollaborator) {
		t.Errorf("nil source: err = %v", err)
	}
}

func TestSourceDeterminism(t *testing.T) {
	a, b := NewSource(42), NewSource(42)
	for i := 0; i < 100; i++ {
		if a.NormFloat64() != b.NormFloat64() || a.Float64() != b.Float64() {
			t.Fatalf("sources with equal seeds diverged at draw %d", i)
		}
	}
}

func TestPresets(t *testing.T) {
	e := EngineWithDrift(NewSource(7), 1.5)
	dc, ok := e.Process().(DriftController)
	if !ok || dc.Drift() != 1.5 {
		t.Fatalf("EngineWithDrift process = %T, want drift 1.5", e.Process())
	}
	if d := DefaultEngine(NewSource(7)); d.Dt() != DefaultDt || d.Price() != DefaultInitialPrice {
		t.Errorf("DefaultEngine dt=%v price=%v", d.Dt(), d.Price())
	}
}
