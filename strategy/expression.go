package strategy

import (
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/wyfcoding/marketsim/xerrors"
)

// ExpressionQuoter 以 expr 表达式描述两侧报价，环境变量为 t、s、q 及自定义参数.
// 例如 ask = "1/k + 2*q*eta"、bid = "1/k - 2*q*eta".
type ExpressionQuoter struct {
	ask      *vm.Program
	bid      *vm.Program
	vars     map[string]float64
	fallback Quote
}

// NewExpressionQuoter 编译两侧表达式，编译失败在构造期返回.
// 运行期求值失败或结果非有限数时返回 fallback.
func NewExpressionQuoter(askExpr, bidExpr string, vars map[string]float64, fallback Quote) (*ExpressionQuoter, error) {
	env := exprEnv(vars, 0, 0, 0)

	ask, err := expr.Compile(askExpr, expr.Env(env), expr.AsFloat64())
	if err != nil {
		return nil, xerrors.ErrInvalidExpression.WithCause(err).WithContext("side", "ask")
	}
	bid, err := expr.Compile(bidExpr, expr.Env(env), expr.AsFloat64())
	if err != nil {
		return nil, xerrors.ErrInvalidExpression.WithCause(err).WithContext("side", "bid")
	}

	copied := make(map[string]float64, len(vars))
	for k, v := range vars {
		copied[k] = v
	}

	return &ExpressionQuoter{ask: ask, bid: bid, vars: copied, fallback: fallback}, nil
}

func (e *ExpressionQuoter) Compute(t, price, inv float64) Quote {
	env := exprEnv(e.vars, t, price, inv)

	ask, ok := run(e.ask, env)
	if !ok {
		return e.fallback
	}
	bid, ok := run(e.bid, env)
	if !ok {
		return e.fallback
	}

	return Quote{Ask: ask, Bid: bid}
}

func exprEnv(vars map[string]float64, t, price, inv float64) map[string]any {
	env := make(map[string]any, len(vars)+3)
	for k, v := range vars {
		env[k] = v
	}
	env["t"] = t
	env["s"] = price
	env["q"] = inv
	return env
}

func run(program *vm.Program, env map[string]any) (float64, bool) {
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, false
	}
	v, ok := out.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
