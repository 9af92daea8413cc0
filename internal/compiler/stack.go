package compiler

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"farnese/internal/datatype"
	"farnese/internal/diag"
)

// Operand is an IR value paired with its logical type.
type Operand struct {
	Value value.Value
	Type  datatype.DataType
}

// IsConstant reports whether the value is a compile-time constant.
func (o Operand) IsConstant() bool {
	_, ok := o.Value.(constant.Constant)
	return ok
}

// Stack holds pending expression results.
//
// Push/pop contract per node kind: Primitive, Symbol and BinaryExpr push
// exactly one operand; MethodCall pushes one unless the callee returns
// void; every other node pushes nothing. Function bodies discard what
// non-final statements leave behind.
type Stack struct {
	items []Operand
}

func (s *Stack) Push(op Operand) { s.items = append(s.items, op) }

// Pop removes the top operand.
func (s *Stack) Pop() (Operand, error) {
	if len(s.items) == 0 {
		return Operand{}, diag.Errorf(diag.SemaTypeMismatch, "", "expression produced no value")
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, nil
}

// PopN removes the top n operands, returning them bottom first.
func (s *Stack) PopN(n int) ([]Operand, error) {
	if n > len(s.items) {
		return nil, diag.Errorf(diag.SemaTypeMismatch, "", "expected %d values, have %d", n, len(s.items))
	}
	out := append([]Operand(nil), s.items[len(s.items)-n:]...)
	s.items = s.items[:len(s.items)-n]
	return out, nil
}

func (s *Stack) Len() int { return len(s.items) }

// Truncate drops everything above depth.
func (s *Stack) Truncate(depth int) {
	if depth < len(s.items) {
		s.items = s.items[:depth]
	}
}

// Scope maps identifiers to bound operands.
type Scope struct {
	bindings map[string]Operand
}

func newScope() *Scope { return &Scope{bindings: make(map[string]Operand)} }

func (s *Scope) Bind(name string, op Operand) { s.bindings[name] = op }

func (s *Scope) Lookup(name string) (Operand, bool) {
	op, ok := s.bindings[name]
	return op, ok
}

func (s *Scope) Len() int { return len(s.bindings) }

// save returns a copy for restore.
func (s *Scope) save() map[string]Operand {
	cp := make(map[string]Operand, len(s.bindings))
	for k, v := range s.bindings {
		cp[k] = v
	}
	return cp
}

func (s *Scope) restore(saved map[string]Operand) { s.bindings = saved }

// keepConstants drops every binding added since saved whose value is not a
// constant; used after REPL snippets whose SSA values die with their function.
func (s *Scope) keepConstants(saved map[string]Operand) {
	for k, v := range s.bindings {
		if _, existed := saved[k]; existed && saved[k].Value == v.Value {
			continue
		}
		if !v.IsConstant() {
			if old, ok := saved[k]; ok {
				s.bindings[k] = old
			} else {
				delete(s.bindings, k)
			}
		}
	}
}
