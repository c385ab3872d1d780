// Package config 提供模拟器的配置加载、校验与热更新.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/marketsim/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

// EnvPrefix 环境变量前缀，如 MMSIM_EVALUATION_EPISODES.
const EnvPrefix = "MMSIM"

// Config 全局顶级配置结构.
type Config struct {
	Version        string               `mapstructure:"version"        toml:"version"`
	Log            LogConfig            `mapstructure:"log"            toml:"log"`
	Metrics        MetricsConfig        `mapstructure:"metrics"        toml:"metrics"`
	Tracing        TracingConfig        `mapstructure:"tracing"        toml:"tracing"`
	Simulation     SimulationConfig     `mapstructure:"simulation"     toml:"simulation"`
	Evaluation     EvaluationConfig     `mapstructure:"evaluation"     toml:"evaluation"`
	Database       DatabaseConfig       `mapstructure:"database"       toml:"database"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitbreaker" toml:"circuitbreaker"`
	Minio          MinioConfig          `mapstructure:"minio"          toml:"minio"`
	Schedule       ScheduleConfig       `mapstructure:"schedule"       toml:"schedule"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	File       string `mapstructure:"file"        toml:"file"`        // 日志文件路径。
	Stdout     bool   `mapstructure:"stdout"      toml:"stdout"`      // 写文件时是否同时输出到 stdout。
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`    // 单个文件最大大小 (MB)。
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"` // 最大备份数。
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`     // 最大保留天数。
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// TracingConfig OpenTelemetry 链路追踪配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"gte=0,lte=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// SimulationConfig 市场动力学参数.
type SimulationConfig struct {
	Dt           float64 `mapstructure:"dt"            toml:"dt"            validate:"gt=0"`
	InitialPrice float64 `mapstructure:"initial_price" toml:"initial_price"`
	Volatility   float64 `mapstructure:"volatility"    toml:"volatility"    validate:"gte=0"`
	Drift        float64 `mapstructure:"drift"         toml:"drift"`
	FillScale    float64 `mapstructure:"fill_scale"    toml:"fill_scale"    validate:"gte=0"`
	FillDecay    float64 `mapstructure:"fill_decay"    toml:"fill_decay"    validate:"gt=0"`
	Seed         uint64  `mapstructure:"seed"          toml:"seed"`
}

// EvaluationConfig 基线策略评估参数.
type EvaluationConfig struct {
	Strategy string             `mapstructure:"strategy" toml:"strategy" validate:"required,oneof=linear linear_penalty exponential expression"`
	Episodes int                `mapstructure:"episodes" toml:"episodes" validate:"gt=0"`
	Workers  int                `mapstructure:"workers"  toml:"workers"  validate:"gte=0"`
	Eta      float64            `mapstructure:"eta"      toml:"eta"`
	K        float64            `mapstructure:"k"        toml:"k"`     // 为 0 时取 simulation.fill_decay。
	Gamma    float64            `mapstructure:"gamma"    toml:"gamma"` // 指数效用风险厌恶系数。
	Grid     []float64          `mapstructure:"grid"     toml:"grid"`  // 扫描参数网格，为空时使用默认网格。
	AskExpr  string             `mapstructure:"ask_expr" toml:"ask_expr"`
	BidExpr  string             `mapstructure:"bid_expr" toml:"bid_expr"`
	Vars     map[string]float64 `mapstructure:"vars"     toml:"vars"`
	Output   string             `mapstructure:"output"   toml:"output"` // CSV 输出路径。
}

// DatabaseConfig 结果库连接与连接池参数.
type DatabaseConfig struct {
	Enabled         bool            `mapstructure:"enabled"           toml:"enabled"`
	Driver          string          `mapstructure:"driver"            toml:"driver"            validate:"omitempty,oneof=postgres mysql clickhouse"`
	DSN             string          `mapstructure:"dsn"               toml:"dsn"               validate:"required_if=Enabled true"`
	ConnMaxLifetime time.Duration   `mapstructure:"conn_max_lifetime" toml:"conn_max_lifetime"`
	SlowThreshold   time.Duration   `mapstructure:"slow_threshold"    toml:"slow_threshold"`
	LogLevel        logger.LogLevel `mapstructure:"log_level"         toml:"log_level"`
	MaxIdleConns    int             `mapstructure:"max_idle_conns"    toml:"max_idle_conns"`
	MaxOpenConns    int             `mapstructure:"max_open_conns"    toml:"max_open_conns"`
}

// CircuitBreakerConfig 结果库写入的熔断策略.
type CircuitBreakerConfig struct {
	Interval    time.Duration `mapstructure:"interval"     toml:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"      toml:"timeout"`
	MaxRequests uint32        `mapstructure:"max_requests" toml:"max_requests"`
	Enabled     bool          `mapstructure:"enabled"      toml:"enabled"`
}

// MinioConfig S3 兼容对象存储的连接参数，Endpoint 为空时不上传.
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"          toml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"     toml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" toml:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"       toml:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"           toml:"use_ssl"`
}

// ScheduleConfig 周期性扫描任务，Cron 优先于 Interval.
type ScheduleConfig struct {
	Cron     string        `mapstructure:"cron"     toml:"cron"`
	Interval time.Duration `mapstructure:"interval" toml:"interval"`
}

// Defaults 返回默认配置：dt=0.005、初始价 100、σ=2、A=140、k=1.5.
func Defaults() Config {
	return Config{
		Version: "dev",
		Log:     LogConfig{Level: "info", MaxSize: 100, MaxBackups: 3, MaxAge: 7},
		Metrics: MetricsConfig{Port: "9090", Path: "/metrics"},
		Tracing: TracingConfig{ServiceName: "mmsim", SamplerRatio: 1},
		Simulation: SimulationConfig{
			Dt:           0.005,
			InitialPrice: 100,
			Volatility:   2,
			FillScale:    140,
			FillDecay:    1.5,
			Seed:         1,
		},
		Evaluation: EvaluationConfig{
			Strategy: "exponential",
			Episodes: 1000,
			Gamma:    0.1,
			Output:   "results.csv",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			ConnMaxLifetime: time.Hour,
			SlowThreshold:   200 * time.Millisecond,
			LogLevel:        logger.Warn,
			MaxIdleConns:    2,
			MaxOpenConns:    10,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			MaxRequests: 1,
			Enabled:     true,
		},
		Minio:    MinioConfig{BucketName: "mmsim-results"},
		Schedule: ScheduleConfig{Interval: time.Hour},
	}
}

var (
	vMu       sync.Mutex
	vInstance = viper.New()
	validate  = validator.New()

	// current 最近一次成功加载的配置；发布后不再修改，读者只读.
	current atomic.Pointer[Config]

	hooksMu  sync.Mutex
	onReload []func(*Config)
)

// Current 返回当前生效配置的快照，未加载时返回默认值.
// 热更新替换整个快照，调用方不得修改返回值.
func Current() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	d := Defaults()
	return &d
}

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	hooksMu.Lock()
	onReload = append(onReload, hook)
	hooksMu.Unlock()
}

// Validate 对配置做结构校验.
func Validate(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Load 读取 TOML 配置并以默认值打底；path 为空时只使用默认值与环境变量.
// 成功后 conf 的副本成为 Current 返回的快照.
func Load(path string, conf *Config) error {
	*conf = Defaults()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, "", reflect.ValueOf(conf).Elem())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config error: %w", err)
		}
	}

	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	if err := Validate(conf); err != nil {
		return err
	}

	snapshot := *conf
	vMu.Lock()
	vInstance = v
	vMu.Unlock()
	current.Store(&snapshot)
	return nil
}

// Watch 监听最近一次 Load 的配置文件，变更后校验并整体替换 Current 快照.
// 未从文件加载时不做任何事；只有常驻进程需要调用.
func Watch() {
	vMu.Lock()
	v := vInstance
	vMu.Unlock()

	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(event fsnotify.Event) { reload(v, event) })
	v.WatchConfig()
}

// bindDefaults 按 mapstructure 标签把默认值写入 viper，使 AutomaticEnv 能覆盖文件中未出现的键.
func bindDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		fv := val.Field(i)
		if fv.Kind() == reflect.Struct {
			bindDefaults(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}

func reload(v *viper.Viper, event fsnotify.Event) {
	slog.Info("detecting config change", "file", event.Name)
	const debounceTimeout = 500 * time.Millisecond
	time.Sleep(debounceTimeout)

	next := Defaults()
	if err := v.Unmarshal(&next); err != nil {
		slog.Error("reload config unmarshal failed", "error", err)
		return
	}
	if err := Validate(&next); err != nil {
		slog.Error("reload config validation failed", "error", err)
		return
	}

	current.Store(&next)
	logging.SetLevel(next.Log.Level)
	slog.Info("config hot-reloaded and validated successfully")

	hooksMu.Lock()
	hooks := append([]func(*Config){}, onReload...)
	hooksMu.Unlock()
	for _, hook := range hooks {
		hook(&next)
	}
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	masked, err := MaskedJSON(conf)
	if err != nil {
		slog.Error("failed to mask config for printing", "error", err)
		return
	}
	slog.Info("Current effective configuration", "config", masked)
}

// MaskedJSON 返回敏感字段被替换后的缩进 JSON.
func MaskedJSON(conf any) (string, error) {
	data, err := json.Marshal(conf)
	if err != nil {
		return "", err
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		return "", err
	}

	mask(configMap)

	out, err := json.MarshalIndent(configMap, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		if slice, ok := val.([]any); ok {
			for _, item := range slice {
				if itemMap, ok := item.(map[string]any); ok {
					mask(itemMap)
				}
			}
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
