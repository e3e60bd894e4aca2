package tool

import (
	"context"
	"strconv"
)

// OperandArgs are the arguments of the integer arithmetic tools.
type OperandArgs struct {
	A int64 `json:"a" desc:"First integer" required:"true"`
	B int64 `json:"b" desc:"Second integer" required:"true"`
}

// Multiply returns the product of two integers.
func Multiply(_ context.Context, args OperandArgs) (string, error) {
	return strconv.FormatInt(args.A*args.B, 10), nil
}

// Add returns the sum of two integers.
func Add(_ context.Context, args OperandArgs) (string, error) {
	return strconv.FormatInt(args.A+args.B, 10), nil
}

// MathTools returns the multiply and add tools.
func MathTools() []Registration {
	return []Registration{
		Func("multiply", "Multiply two integers.", Multiply),
		Func("add", "Add two integers.", Add),
	}
}
