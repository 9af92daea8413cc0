package ast

import (
	"farnese/internal/diag"
)

type wireLiteral struct {
	Kind  string  `msgpack:"kind" json:"kind"`
	Int   int64   `msgpack:"int,omitempty" json:"int,omitempty"`
	Uint  uint64  `msgpack:"uint,omitempty" json:"uint,omitempty"`
	Float float64 `msgpack:"float,omitempty" json:"float,omitempty"`
	Str   string  `msgpack:"str,omitempty" json:"str,omitempty"`
}

// wireNode is the flat tagged form of every node kind; Kind selects which
// fields are read.
type wireNode struct {
	Kind       string       `msgpack:"kind" json:"kind"`
	Name       string       `msgpack:"name,omitempty" json:"name,omitempty"`
	Supertype  string       `msgpack:"supertype,omitempty" json:"supertype,omitempty"`
	Bits       uint32       `msgpack:"bits,omitempty" json:"bits,omitempty"`
	Mutable    bool         `msgpack:"mutable,omitempty" json:"mutable,omitempty"`
	FieldNames []string     `msgpack:"field_names,omitempty" json:"field_names,omitempty"`
	FieldTypes []string     `msgpack:"field_types,omitempty" json:"field_types,omitempty"`
	Params     []wireArg    `msgpack:"params,omitempty" json:"params,omitempty"`
	ReturnType string       `msgpack:"return_type,omitempty" json:"return_type,omitempty"`
	Body       []wireNode   `msgpack:"body,omitempty" json:"body,omitempty"`
	Args       []wireNode   `msgpack:"args,omitempty" json:"args,omitempty"`
	Identifier string       `msgpack:"identifier,omitempty" json:"identifier,omitempty"`
	Value      *wireNode    `msgpack:"value,omitempty" json:"value,omitempty"`
	Op         string       `msgpack:"op,omitempty" json:"op,omitempty"`
	LHS        *wireNode    `msgpack:"lhs,omitempty" json:"lhs,omitempty"`
	RHS        *wireNode    `msgpack:"rhs,omitempty" json:"rhs,omitempty"`
	Literal    *wireLiteral `msgpack:"literal,omitempty" json:"literal,omitempty"`
	Symbols    []string     `msgpack:"symbols,omitempty" json:"symbols,omitempty"`
}

type wireArg struct {
	Name    string `msgpack:"name" json:"name"`
	ArgType string `msgpack:"arg_type" json:"arg_type"`
}

func (w *wireNode) node() (Node, error) {
	switch w.Kind {
	case "Empty", "":
		return &Empty{}, nil
	case "Module":
		exprs, err := wireList(w.Body)
		if err != nil {
			return nil, err
		}
		return &Module{Name: w.Name, Exprs: exprs}, nil
	case "AbstractType":
		return &AbstractType{Name: w.Name, Supertype: w.Supertype}, nil
	case "PrimitiveType":
		return &PrimitiveType{Name: w.Name, Supertype: w.Supertype, Bits: w.Bits}, nil
	case "StructType":
		if len(w.FieldNames) != len(w.FieldTypes) {
			return nil, diag.Errorf(diag.AstDecodeFailed, w.Name,
				"struct %s has %d field names and %d field types", w.Name, len(w.FieldNames), len(w.FieldTypes))
		}
		return &StructType{
			Name:       w.Name,
			Supertype:  w.Supertype,
			Mutable:    w.Mutable,
			FieldNames: w.FieldNames,
			FieldTypes: w.FieldTypes,
		}, nil
	case "Function":
		body, err := wireList(w.Body)
		if err != nil {
			return nil, err
		}
		fn := &Function{Name: w.Name, ReturnType: w.ReturnType, Body: body}
		for _, p := range w.Params {
			fn.Args = append(fn.Args, FunctionArg(p))
		}
		return fn, nil
	case "AssignmentExpr":
		v, err := wireChild(w.Value, w.Kind)
		if err != nil {
			return nil, err
		}
		return &Assignment{Identifier: w.Identifier, Value: v}, nil
	case "BinaryExpr":
		op, err := ParseOperator(w.Op)
		if err != nil {
			return nil, diag.Wrap(diag.AstDecodeFailed, w.Op, err)
		}
		lhs, err := wireChild(w.LHS, w.Kind)
		if err != nil {
			return nil, err
		}
		rhs, err := wireChild(w.RHS, w.Kind)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, LHS: lhs, RHS: rhs}, nil
	case "MethodCall":
		args, err := wireList(w.Args)
		if err != nil {
			return nil, err
		}
		return &MethodCall{Name: w.Name, Args: args}, nil
	case "Primitive":
		if w.Literal == nil {
			return nil, diag.Errorf(diag.AstBadLiteral, "", "primitive without literal")
		}
		kind, err := ParseLiteralKind(w.Literal.Kind)
		if err != nil {
			return nil, diag.Wrap(diag.AstBadLiteral, w.Literal.Kind, err)
		}
		return &Primitive{Literal{
			Kind:  kind,
			Int:   w.Literal.Int,
			Uint:  w.Literal.Uint,
			Float: w.Literal.Float,
			Str:   w.Literal.Str,
		}}, nil
	case "Symbol":
		return &Symbol{Name: w.Name}, nil
	case "Exports":
		return &Exports{Symbols: w.Symbols}, nil
	case "ParenthesesExpr":
		inner, err := wireChild(w.Value, w.Kind)
		if err != nil {
			return nil, err
		}
		return &Parens{Expr: inner}, nil
	}
	return nil, diag.Errorf(diag.AstUnknownNode, w.Kind, "unknown node kind %q", w.Kind)
}

func wireList(ws []wireNode) ([]Node, error) {
	out := make([]Node, 0, len(ws))
	for i := range ws {
		n, err := ws[i].node()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func wireChild(w *wireNode, parent string) (Node, error) {
	if w == nil {
		return nil, diag.Errorf(diag.AstDecodeFailed, parent, "%s is missing an operand", parent)
	}
	return w.node()
}

func toWire(n Node) (wireNode, error) {
	w := wireNode{Kind: n.Kind().String()}
	var err error
	switch n := n.(type) {
	case *Empty:
	case *Module:
		w.Name = n.Name
		w.Body, err = toWireList(n.Exprs)
	case *AbstractType:
		w.Name, w.Supertype = n.Name, n.Supertype
	case *PrimitiveType:
		w.Name, w.Supertype, w.Bits = n.Name, n.Supertype, n.Bits
	case *StructType:
		w.Name, w.Supertype, w.Mutable = n.Name, n.Supertype, n.Mutable
		w.FieldNames, w.FieldTypes = n.FieldNames, n.FieldTypes
	case *Function:
		w.Name, w.ReturnType = n.Name, n.ReturnType
		for _, a := range n.Args {
			w.Params = append(w.Params, wireArg(a))
		}
		w.Body, err = toWireList(n.Body)
	case *Assignment:
		w.Identifier = n.Identifier
		w.Value, err = toWirePtr(n.Value)
	case *Binary:
		w.Op = n.Op.Name()
		if w.LHS, err = toWirePtr(n.LHS); err == nil {
			w.RHS, err = toWirePtr(n.RHS)
		}
	case *MethodCall:
		w.Name = n.Name
		w.Args, err = toWireList(n.Args)
	case *Primitive:
		l := n.Literal
		w.Literal = &wireLiteral{Kind: l.Kind.String(), Int: l.Int, Uint: l.Uint, Float: l.Float, Str: l.Str}
	case *Symbol:
		w.Name = n.Name
	case *Exports:
		w.Symbols = n.Symbols
	case *Parens:
		w.Value, err = toWirePtr(n.Expr)
	default:
		err = diag.Errorf(diag.AstUnknownNode, n.Kind().String(), "cannot encode %T", n)
	}
	return w, err
}

func toWireList(nodes []Node) ([]wireNode, error) {
	out := make([]wireNode, 0, len(nodes))
	for _, n := range nodes {
		w, err := toWire(n)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func toWirePtr(n Node) (*wireNode, error) {
	if n == nil {
		return nil, nil
	}
	w, err := toWire(n)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
