package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mmsim.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	conf := Defaults()
	if err := Validate(&conf); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	sim := conf.Simulation
	if sim.Dt != 0.005 || sim.InitialPrice != 100 || sim.Volatility != 2 || sim.FillScale != 140 || sim.FillDecay != 1.5 {
		t.Errorf("unexpected simulation defaults %+v", sim)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
version = "1.2.0"

[simulation]
volatility = 3.5
seed = 99

[evaluation]
strategy = "linear_penalty"
episodes = 50
eta = 0.02
grid = [0.1, 0.2]

[schedule]
interval = "15m"
`)

	var conf Config
	if err := Load(path, &conf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if conf.Version != "1.2.0" || conf.Simulation.Volatility != 3.5 || conf.Simulation.Seed != 99 {
		t.Errorf("file values not applied: %+v", conf.Simulation)
	}
	if conf.Simulation.Dt != 0.005 || conf.Simulation.FillScale != 140 {
		t.Errorf("defaults lost for keys absent from file: %+v", conf.Simulation)
	}
	if conf.Evaluation.Strategy != "linear_penalty" || conf.Evaluation.Episodes != 50 || len(conf.Evaluation.Grid) != 2 {
		t.Errorf("evaluation section = %+v", conf.Evaluation)
	}
	if conf.Schedule.Interval != 15*time.Minute {
		t.Errorf("schedule interval = %v", conf.Schedule.Interval)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MMSIM_EVALUATION_EPISODES", "7")
	t.Setenv("MMSIM_SIMULATION_FILL_DECAY", "2.5")

	var conf Config
	if err := Load("", &conf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if conf.Evaluation.Episodes != 7 || conf.Simulation.FillDecay != 2.5 {
		t.Errorf("env overrides not applied: episodes=%d decay=%v", conf.Evaluation.Episodes, conf.Simulation.FillDecay)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non-positive dt", "[simulation]\ndt = 0\n"},
		{"unknown strategy", "[evaluation]\nstrategy = \"martingale\"\n"},
		{"zero episodes", "[evaluation]\nepisodes = 0\n"},
		{"database without dsn", "[database]\nenabled = true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var conf Config
			if err := Load(writeConfig(t, tt.body), &conf); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestMaskedJSON(t *testing.T) {
	conf := Defaults()
	conf.Database.DSN = "postgres://user:hunter2@db/mmsim"
	conf.Minio.SecretAccessKey = "s3cr3t"

	out, err := MaskedJSON(conf)
	if err != nil {
		t.Fatalf("MaskedJSON failed: %v", err)
	}
	if strings.Contains(out, "hunter2") || strings.Contains(out, "s3cr3t") {
		t.Errorf("sensitive values leaked: %s", out)
	}
	if !strings.Contains(out, "******") {
		t.Errorf("expected mask marker in %s", out)
	}
}

func TestRegisterReloadHookIgnoresNil(t *testing.T) {
	before := len(onReload)
	RegisterReloadHook(nil)
	if len(onReload) != before {
		t.Errorf("nil hook registered")
	}
}

func TestLoadPublishesSnapshot(t *testing.T) {
	path := writeConfig(t, "[evaluation]\nepisodes = 12\n")

	var conf Config
	if err := Load(path, &conf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	conf.Evaluation.Episodes = 99

	if got := Current().Evaluation.Episodes; got != 12 {
		t.Errorf("Current().Evaluation.Episodes = %d, want 12 unaffected by caller edits", got)
	}
}

func TestWatchSwapsSnapshotWhileReaders(t *testing.T) {
	path := writeConfig(t, "[evaluation]\nstrategy = \"exponential\"\nepisodes = 10\ngrid = [0.1, 0.2]\n")

	var conf Config
	if err := Load(path, &conf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	reloaded := make(chan int, 1)
	RegisterReloadHook(func(c *Config) {
		select {
		case reloaded <- c.Evaluation.Episodes:
		default:
		}
	})
	Watch()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				c := Current()
				if c.Evaluation.Strategy == "" || len(c.Evaluation.Grid) == 0 {
					t.Error("reader saw a partially applied config")
					return
				}
			}
		}()
	}

	if err := os.WriteFile(path, []byte("[evaluation]\nstrategy = \"linear\"\nepisodes = 77\ngrid = [0.3]\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case got := <-reloaded:
		if got != 77 {
			t.Errorf("hook saw episodes = %d, want 77", got)
		}
	case <-time.After(5 * time.Second):
		t.Error("config was not reloaded")
	}
	close(done)
	wg.Wait()

	c := Current()
	if c.Evaluation.Strategy != "linear" || c.Evaluation.Episodes != 77 || len(c.Evaluation.Grid) != 1 {
		t.Errorf("Current() after reload = %+v", c.Evaluation)
	}
	if conf.Evaluation.Episodes != 10 {
		t.Errorf("caller copy mutated by reload: episodes = %d", conf.Evaluation.Episodes)
	}
}

func TestLoadDoesNotWatch(t *testing.T) {
	path := writeConfig(t, "[evaluation]\nepisodes = 5\n")

	var conf Config
	if err := Load(path, &conf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("[evaluation]\nepisodes = 6\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	// 大于热更新的去抖时间.
	time.Sleep(time.Second)
	if got := Current().Evaluation.Episodes; got != 5 {
		t.Errorf("episodes = %d, want 5 without Watch", got)
	}
}
