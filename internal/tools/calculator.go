package tools

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
)

// Calculator evaluates arithmetic expressions.
type Calculator struct{}

// NewCalculator creates a calculator tool.
func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Name() string { return "calculator" }
func (c *Calculator) Description() string {
	return "Evaluate an arithmetic expression. Supports + - * / %, parentheses, " +
		"pi, e and the functions sqrt, abs, pow, floor, ceil, round."
}
func (c *Calculator) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{"type": "string", "description": "The expression to evaluate, e.g. (2+3)*4"},
		},
		"required": []string{"expression"},
	}
}

func (c *Calculator) Execute(_ context.Context, params map[string]any) (any, error) {
	expr, err := stringParam(params, "expression")
	if err != nil {
		return nil, err
	}
	v, err := Evaluate(expr)
	if err != nil {
		return nil, err
	}
	return map[string]any{"expression": expr, "result": v}, nil
}

// Evaluate computes the value of an arithmetic expression.
func Evaluate(expr string) (float64, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("parse expression: %w", err)
	}
	v, err := eval(node)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return v, nil
}

func eval(node ast.Expr) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal %s", n.Value)
		}
		return strconv.ParseFloat(n.Value, 64)

	case *ast.ParenExpr:
		return eval(n.X)

	case *ast.Ident:
		switch n.Name {
		case "pi":
			return math.Pi, nil
		case "e":
			return math.E, nil
		}
		return 0, fmt.Errorf("unknown identifier %q", n.Name)

	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)

	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return x / y, nil
		case token.REM:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return math.Mod(x, y), nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)

	case *ast.CallExpr:
		return call(n)
	}
	return 0, fmt.Errorf("unsupported expression")
}

func call(n *ast.CallExpr) (float64, error) {
	fn, ok := n.Fun.(*ast.Ident)
	if !ok {
		return 0, fmt.Errorf("unsupported function call")
	}
	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		v, err := eval(a)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}

	unary := map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
	}
	if f, ok := unary[fn.Name]; ok {
		if len(args) != 1 {
			return 0, fmt.Errorf("%s takes 1 argument, got %d", fn.Name, len(args))
		}
		return f(args[0]), nil
	}
	if fn.Name == "pow" {
		if len(args) != 2 {
			return 0, fmt.Errorf("pow takes 2 arguments, got %d", len(args))
		}
		return math.Pow(args[0], args[1]), nil
	}
	return 0, fmt.Errorf("unknown function %q", fn.Name)
}
