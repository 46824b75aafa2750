package tools

import (
	"context"
	"fmt"
	"time"
)

// ArithmeticTool returns the basic-arithmetic capability: a deterministic
// four-function calculator over two operands.
func ArithmeticTool() Definition {
	return Definition{
		Name:        string(CapabilityArithmetic),
		Description: "Perform basic arithmetic on two numbers.",
		Parameters: []Parameter{
			{Name: "op", Type: "string", Description: "One of add, sub, mul, div", Required: true},
			{Name: "a", Type: "number", Description: "Left operand", Required: true},
			{Name: "b", Type: "number", Description: "Right operand", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			op, _ := params["op"].(string)
			a, okA := toFloat(params["a"])
			b, okB := toFloat(params["b"])
			if !okA || !okB {
				return nil, fmt.Errorf("operands a and b must be numbers")
			}

			var result float64
			switch op {
			case "add":
				result = a + b
			case "sub":
				result = a - b
			case "mul":
				result = a * b
			case "div":
				if b == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				result = a / b
			default:
				return nil, fmt.Errorf("unknown op: %s", op)
			}

			return map[string]interface{}{"result": result}, nil
		},
	}
}

// CurrentTimeTool returns the current-time capability. An optional "tz"
// parameter selects an IANA timezone; the default is UTC.
func CurrentTimeTool() Definition {
	return CurrentTimeToolAt(time.Now)
}

// CurrentTimeToolAt is CurrentTimeTool with an injectable clock.
func CurrentTimeToolAt(now func() time.Time) Definition {
	return Definition{
		Name:        string(CapabilityCurrentTime),
		Description: "Return the current date and time.",
		Parameters: []Parameter{
			{Name: "tz", Type: "string", Description: "IANA timezone name (default UTC)", Required: false},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			loc := time.UTC
			if tz, ok := params["tz"].(string); ok && tz != "" {
				parsed, err := time.LoadLocation(tz)
				if err != nil {
					return nil, fmt.Errorf("invalid timezone: %s", tz)
				}
				loc = parsed
			}

			t := now().In(loc)
			return map[string]interface{}{
				"iso":  t.Format(time.RFC3339),
				"unix": t.Unix(),
				"zone": loc.String(),
			}, nil
		},
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
