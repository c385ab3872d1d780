package xerrors

var (
	// ErrNonPositiveTimeStep 时间步长必须为正，否则回合永远不会终止。
	ErrNonPositiveTimeStep = New(ErrInvalidArg, 400101, "non-positive time step", "dt must be a finite positive number", nil)
	// ErrNilCollaborator 引擎依赖的随机源、价格过程或成交模型缺失。
	ErrNilCollaborator = New(ErrInvalidArg, 400102, "nil collaborator", "random source, price process and fill model are required", nil)
	// ErrDriftUnsupported 价格过程不支持外部设置漂移。
	ErrDriftUnsupported = New(ErrInvalidArg, 400103, "drift unsupported", "price process must implement DriftController", nil)
	// ErrDecayUnsupported 成交模型未暴露衰减率。
	ErrDecayUnsupported = New(ErrInvalidArg, 400104, "decay unsupported", "fill model must expose DecayRate", nil)
	// ErrInvalidEpisodes 回合数必须为正。
	ErrInvalidEpisodes = New(ErrInvalidArg, 400105, "invalid episode count", "episodes must be positive", nil)
	// ErrUnknownStrategy 未知报价策略。
	ErrUnknownStrategy = New(ErrInvalidArg, 400106, "unknown strategy", "supported: linear, linear_penalty, exponential, expression", nil)
	// ErrInvalidExpression 报价表达式无法编译。
	ErrInvalidExpression = New(ErrInvalidArg, 400107, "invalid expression", "ask and bid expressions must compile to numbers", nil)
	// ErrEmptyGrid 参数网格为空。
	ErrEmptyGrid = New(ErrInvalidArg, 400108, "empty parameter grid", "sweep requires at least one parameter value", nil)
	// ErrInvalidStrategyParam 策略参数非法。
	ErrInvalidStrategyParam = New(ErrInvalidArg, 400109, "invalid strategy parameter", "k and gamma must be positive", nil)
	// ErrUnsupportedDriver 不支持的数据库驱动。
	ErrUnsupportedDriver = New(ErrInvalidArg, 400110, "unsupported database driver", "supported: postgres, mysql, clickhouse", nil)
	// ErrStoreUnavailable 结果存储不可用（熔断打开）。
	ErrStoreUnavailable = New(ErrUnavailable, 503101, "result store unavailable", "circuit breaker is open", nil)
)
