package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wyfcoding/marketsim/xerrors"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2}
}

func TestDoRecovers(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("Do() = %v after %d calls, want nil after 3", err, calls)
	}
}

func TestDoExhausted(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Do(context.Background(), fastPolicy(2), func(context.Context) error {
		calls++
		return boom
	})
	if calls != 2 || !errors.Is(err, boom) {
		t.Errorf("Do() = %v after %d calls", err, calls)
	}
	if e, ok := xerrors.FromError(err); !ok || e.Type != xerrors.ErrUnavailable {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"invalid arg", xerrors.ErrEmptyGrid},
		{"canceled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastPolicy(5), func(context.Context) error {
				calls++
				return tt.err
			})
			if calls != 1 || !errors.Is(err, tt.err) {
				t.Errorf("Do() = %v after %d calls", err, calls)
			}
		})
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Initial: time.Hour}
	err := Do(ctx, p, func(context.Context) error {
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled, got %v", err)
	}
}

func TestPolicyNext(t *testing.T) {
	p := Policy{Multiplier: 2, Max: 300 * time.Millisecond, Jitter: 0.5}
	tests := []struct {
		cur  time.Duration
		u    float64
		want time.Duration
	}{
		{100 * time.Millisecond, 0.5, 200 * time.Millisecond},
		{100 * time.Millisecond, 0, 100 * time.Millisecond},
		{200 * time.Millisecond, 0.5, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := p.next(tt.cur, tt.u); got != tt.want {
			t.Errorf("next(%v, %v) = %v, want %v", tt.cur, tt.u, got, tt.want)
		}
	}
}
