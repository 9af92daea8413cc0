package ast

import "fmt"

type Operator uint8

const (
	OpPlus Operator = iota + 1
	OpMinus
	OpMultiply
	OpDivide
)

func (op Operator) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	}
	return "?"
}

// Name is the wire spelling of op.
func (op Operator) Name() string {
	switch op {
	case OpPlus:
		return "Plus"
	case OpMinus:
		return "Minus"
	case OpMultiply:
		return "Multiply"
	case OpDivide:
		return "Divide"
	}
	return ""
}

// ParseOperator accepts either the wire name or the symbol.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "Plus", "+":
		return OpPlus, nil
	case "Minus", "-":
		return OpMinus, nil
	case "Multiply", "*":
		return OpMultiply, nil
	case "Divide", "/":
		return OpDivide, nil
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}
