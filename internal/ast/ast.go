// Package ast is the tree the external parser hands to the compiler.
package ast

import (
	"fmt"
	"strings"
)

// Kind discriminates node types.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindModule
	KindAbstractType
	KindPrimitiveType
	KindStructType
	KindFunction
	KindAssignment
	KindBinary
	KindMethodCall
	KindPrimitive
	KindSymbol
	KindExports
	KindParens
)

var kindNames = [...]string{
	KindEmpty:         "Empty",
	KindModule:        "Module",
	KindAbstractType:  "AbstractType",
	KindPrimitiveType: "PrimitiveType",
	KindStructType:    "StructType",
	KindFunction:      "Function",
	KindAssignment:    "AssignmentExpr",
	KindBinary:        "BinaryExpr",
	KindMethodCall:    "MethodCall",
	KindPrimitive:     "Primitive",
	KindSymbol:        "Symbol",
	KindExports:       "Exports",
	KindParens:        "ParenthesesExpr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Node is implemented by every tree node.
type Node interface {
	Kind() Kind
	String() string
}

type Module struct {
	Name  string
	Exprs []Node
}

type AbstractType struct {
	Name      string
	Supertype string
}

type PrimitiveType struct {
	Name      string
	Supertype string
	Bits      uint32
}

type StructType struct {
	Name       string
	Supertype  string
	Mutable    bool
	FieldNames []string
	FieldTypes []string
}

type FunctionArg struct {
	Name    string
	ArgType string
}

// Function is a definition; an empty ReturnType means "infer from the body".
type Function struct {
	Name       string
	Args       []FunctionArg
	ReturnType string
	Body       []Node
}

type Assignment struct {
	Identifier string
	Value      Node
}

type Binary struct {
	Op  Operator
	LHS Node
	RHS Node
}

type MethodCall struct {
	Name string
	Args []Node
}

type Primitive struct {
	Literal Literal
}

type Symbol struct {
	Name string
}

type Exports struct {
	Symbols []string
}

type Parens struct {
	Expr Node
}

type Empty struct{}

func (*Module) Kind() Kind        { return KindModule }
func (*AbstractType) Kind() Kind  { return KindAbstractType }
func (*PrimitiveType) Kind() Kind { return KindPrimitiveType }
func (*StructType) Kind() Kind    { return KindStructType }
func (*Function) Kind() Kind      { return KindFunction }
func (*Assignment) Kind() Kind    { return KindAssignment }
func (*Binary) Kind() Kind        { return KindBinary }
func (*MethodCall) Kind() Kind    { return KindMethodCall }
func (*Primitive) Kind() Kind     { return KindPrimitive }
func (*Symbol) Kind() Kind        { return KindSymbol }
func (*Exports) Kind() Kind       { return KindExports }
func (*Parens) Kind() Kind        { return KindParens }
func (*Empty) Kind() Kind         { return KindEmpty }

// String renders nodes as s-expressions.

func (n *Module) String() string {
	return fmt.Sprintf("(module %s %s)", n.Name, joinNodes(n.Exprs))
}

func (n *AbstractType) String() string {
	return fmt.Sprintf("(abstract_type %s %s)", n.Name, n.Supertype)
}

func (n *PrimitiveType) String() string {
	return fmt.Sprintf("(primitive_type %s %s %d)", n.Name, n.Supertype, n.Bits)
}

func (n *StructType) String() string {
	fields := make([]string, len(n.FieldNames))
	for i := range n.FieldNames {
		fields[i] = fmt.Sprintf("(:: %s %s)", n.FieldNames[i], n.FieldTypes[i])
	}
	return fmt.Sprintf("(struct_type %t %s %s (%s))", n.Mutable, n.Name, n.Supertype, strings.Join(fields, " "))
}

func (n *Function) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = fmt.Sprintf("(:: %s %s)", a.Name, a.ArgType)
	}
	ret := n.ReturnType
	if ret == "" {
		ret = "_"
	}
	return fmt.Sprintf("(function %s (%s) %s %s)", n.Name, strings.Join(args, " "), ret, joinNodes(n.Body))
}

func (n *Assignment) String() string {
	return fmt.Sprintf("(= %s %s)", n.Identifier, nodeString(n.Value))
}

func (n *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Op, nodeString(n.LHS), nodeString(n.RHS))
}

func (n *MethodCall) String() string {
	return fmt.Sprintf("(call %s %s)", n.Name, joinNodes(n.Args))
}

func (n *Primitive) String() string { return n.Literal.String() }
func (n *Symbol) String() string    { return n.Name }

func (n *Exports) String() string {
	return fmt.Sprintf("(export %s)", strings.Join(n.Symbols, " "))
}

func (n *Parens) String() string { return fmt.Sprintf("(%s)", nodeString(n.Expr)) }
func (*Empty) String() string    { return "()" }

func nodeString(n Node) string {
	if n == nil {
		return "nil"
	}
	return n.String()
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = nodeString(n)
	}
	return "(" + strings.Join(parts, " ") + ")"
}
