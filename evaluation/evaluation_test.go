package evaluation

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wyfcoding/marketsim/dynamics"
	"github.com/wyfcoding/marketsim/env"
	"github.com/wyfcoding/marketsim/logging"
	"github.com/wyfcoding/marketsim/metrics"
	"github.com/wyfcoding/marketsim/stats"
	"github.com/wyfcoding/marketsim/strategy"
	"github.com/wyfcoding/marketsim/xerrors"
)

func quietEvaluator(episodes int, seed uint64) *Evaluator {
	e := NewEvaluator(episodes, seed)
	e.Logger = logging.NewWriterLogger(io.Discard, "test", "evaluation")
	return e
}

func TestRunEpisode(t *testing.T) {
	d := env.DefaultZeroSum(dynamics.NewSource(5))

	res, err := RunEpisode[env.JointAction](context.Background(), d, func(env.Observation) env.JointAction {
		return env.JointAction{Trader: strategy.Quote{Ask: 1, Bid: 1}, Adversary: 0.5}
	})
	if err != nil {
		t.Fatalf("RunEpisode failed: %v", err)
	}
	if res.Steps != 200 {
		t.Errorf("steps = %d, want 200", res.Steps)
	}
}

func TestRunEpisodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := env.DefaultTrader(dynamics.NewSource(5), 0)
	res, err := RunEpisode[strategy.Quote](ctx, d, func(env.Observation) strategy.Quote { return strategy.Quote{} })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Steps != 0 {
		t.Errorf("steps = %d, want 0", res.Steps)
	}
}

func TestEvaluateIndependentOfWorkers(t *testing.T) {
	quoter := strategy.NewExponentialUtility(dynamics.DefaultFillDecay, 0.1, dynamics.DefaultVolatility)

	run := func(workers int) *Result {
		e := quietEvaluator(12, 100)
		e.Workers = workers
		res, err := e.Evaluate(context.Background(), strategy.NameExponential, 0.1, quoter)
		if err != nil {
			t.Fatalf("Evaluate(workers=%d) failed: %v", workers, err)
		}
		return res
	}

	serial, parallel := run(1), run(4)
	for i := range serial.Outcomes {
		if serial.Outcomes[i] != parallel.Outcomes[i] {
			t.Fatalf("episode %d differs: %+v vs %+v", i, serial.Outcomes[i], parallel.Outcomes[i])
		}
	}
	if serial.Record != parallel.Record {
		t.Errorf("records differ: %+v vs %+v", serial.Record, parallel.Record)
	}
}

func TestEvaluateZeroIntensity(t *testing.T) {
	e := quietEvaluator(5, 1)
	e.Market.FillScale = 0
	e.Metrics = metrics.NewMetrics("test")

	res, err := e.Evaluate(context.Background(), strategy.NameLinear, 1.5, strategy.NewLinearUtility(1.5))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	r := res.Record
	if r.Episodes != 5 || r.Wealth != (stats.Estimate{}) || r.Inventory != (stats.Estimate{}) {
		t.Errorf("unexpected record without fills: %+v", r)
	}
	if math.Abs(r.Spread.Mean-2/1.5) > 1e-12 {
		t.Errorf("average spread = %v, want %v", r.Spread.Mean, 2/1.5)
	}
	for _, o := range res.Outcomes {
		if o.Steps != 200 || o.AskFills != 0 || o.BidFills != 0 {
			t.Errorf("unexpected outcome %+v", o)
		}
	}

	if got := testutil.ToFloat64(e.Metrics.EpisodesTotal.WithLabelValues(strategy.NameLinear)); got != 5 {
		t.Errorf("episodes metric = %v, want 5", got)
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	e := quietEvaluator(0, 1)
	if _, err := e.Evaluate(context.Background(), "linear", 1, strategy.NewLinearUtility(1)); !errors.Is(err, xerrors.ErrInvalidEpisodes) {
		t.Errorf("expected ErrInvalidEpisodes, got %v", err)
	}

	e.Episodes = 1
	if _, err := e.Evaluate(context.Background(), "linear", 1, nil); !errors.Is(err, xerrors.ErrNilCollaborator) {
		t.Errorf("expected ErrNilCollaborator, got %v", err)
	}

	e.Market.Dt = 0
	if _, err := e.Evaluate(context.Background(), "linear", 1, strategy.NewLinearUtility(1)); !errors.Is(err, xerrors.ErrNonPositiveTimeStep) {
		t.Errorf("expected ErrNonPositiveTimeStep, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	e := quietEvaluator(3, 7)

	records, err := e.Sweep(context.Background(), strategy.NameLinearPenalty,
		strategy.Params{K: 1.5}, []float64{0.5, 0.1, 0.3}, 2)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	want := []float64{0.1, 0.3, 0.5}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, r := range records {
		if r.Param != want[i] || r.Episodes != 3 || r.Strategy != strategy.NameLinearPenalty {
			t.Errorf("record %d = %+v", i, r)
		}
	}

	if _, err := e.Sweep(context.Background(), strategy.NameLinear, strategy.Params{}, nil, 1); !errors.Is(err, xerrors.ErrEmptyGrid) {
		t.Errorf("expected ErrEmptyGrid, got %v", err)
	}
	if _, err := e.Sweep(context.Background(), "martingale", strategy.Params{K: 1}, []float64{1}, 1); !errors.Is(err, xerrors.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestDefaultGridAndParams(t *testing.T) {
	grid := DefaultGrid()
	if len(grid) != 101 || grid[0] != 0.001 || math.Abs(grid[100]-1) > 1e-12 {
		t.Errorf("unexpected default grid: len=%d first=%v last=%v", len(grid), grid[0], grid[len(grid)-1])
	}

	base := strategy.Params{K: 1.5, Vars: map[string]float64{"a": 1}}
	p := WithParam(strategy.NameExpression, base, 0.2)
	if p.Vars[SweepVar] != 0.2 || p.Vars["a"] != 1 {
		t.Errorf("expression vars = %v", p.Vars)
	}
	if _, ok := base.Vars[SweepVar]; ok {
		t.Error("WithParam mutated the base vars")
	}

	if WithParam(strategy.NameExponential, base, 0.3).Gamma != 0.3 || SweepParam(strategy.NameExponential) != "gamma" {
		t.Error("exponential sweep should vary gamma")
	}
}

func TestWriteCSV(t *testing.T) {
	records := []Record{
		{Strategy: "exponential", Param: 0.1, Episodes: 10, Wealth: stats.Estimate{Mean: 50, StdDev: 5}},
		{Strategy: "exponential", Param: 0.2, Episodes: 10},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(rows) != 3 || len(rows[0]) != len(CSVHeader) {
		t.Fatalf("unexpected csv shape: %v", rows)
	}
	if rows[1][0] != "exponential" || rows[1][1] != "0.1" || rows[1][3] != "50" || rows[1][4] != "5" {
		t.Errorf("unexpected first row %v", rows[1])
	}
}
