package backend

import (
	"math/big"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Builder appends instructions to the current block of one function.
// Integer arithmetic on constants is folded instead of emitted.
type Builder struct {
	fn    *ir.Func
	block *ir.Block
}

// NewBuilder opens an "entry" block in fn.
func NewBuilder(fn *ir.Func) *Builder {
	return &Builder{fn: fn, block: fn.NewBlock("entry")}
}

// Func returns the function being built.
func (b *Builder) Func() *ir.Func { return b.fn }

// Block returns the insertion block.
func (b *Builder) Block() *ir.Block { return b.block }

// Terminated reports whether the insertion block already has a terminator.
func (b *Builder) Terminated() bool { return b.block.Term != nil }

func (b *Builder) Call(callee value.Value, args ...value.Value) value.Value {
	return b.block.NewCall(callee, args...)
}

func (b *Builder) Add(x, y value.Value) value.Value {
	if c, ok := FoldAdd(x, y); ok {
		return c
	}
	return b.block.NewAdd(x, y)
}

func (b *Builder) Sub(x, y value.Value) value.Value {
	if c, ok := FoldSub(x, y); ok {
		return c
	}
	return b.block.NewSub(x, y)
}

// FoldAdd adds two integer constants of one width, wrapping on overflow.
func FoldAdd(x, y value.Value) (value.Value, bool) {
	c, ok := foldInt(x, y, (*big.Int).Add)
	if !ok {
		return nil, false
	}
	return c, true
}

// FoldSub subtracts two integer constants of one width, wrapping on overflow.
func FoldSub(x, y value.Value) (value.Value, bool) {
	c, ok := foldInt(x, y, (*big.Int).Sub)
	if !ok {
		return nil, false
	}
	return c, true
}

// SExt sign-extends x to t, folding constants.
func (b *Builder) SExt(x value.Value, t *types.IntType) value.Value {
	if c, ok := x.(*constant.Int); ok {
		return &constant.Int{Typ: t, X: new(big.Int).Set(c.X)}
	}
	return b.block.NewSExt(x, t)
}

// ZExt zero-extends x to t, folding constants.
func (b *Builder) ZExt(x value.Value, t *types.IntType) value.Value {
	if c, ok := x.(*constant.Int); ok {
		return &constant.Int{Typ: t, X: unsignedOf(c)}
	}
	return b.block.NewZExt(x, t)
}

// FPExt widens a float to t.
func (b *Builder) FPExt(x value.Value, t *types.FloatType) value.Value {
	return b.block.NewFPExt(x, t)
}

func (b *Builder) Load(elem types.Type, ptr value.Value) value.Value {
	return b.block.NewLoad(elem, ptr)
}

// StructGEP addresses field idx of the struct st that ptr points at.
func (b *Builder) StructGEP(st *types.StructType, ptr value.Value, idx int64) value.Value {
	return b.block.NewGetElementPtr(st, ptr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, idx))
}

// Ret terminates the block; a nil value returns void.
func (b *Builder) Ret(v value.Value) {
	b.block.NewRet(v)
}

func foldInt(x, y value.Value, op func(z, a, b *big.Int) *big.Int) (*constant.Int, bool) {
	cx, ok := x.(*constant.Int)
	if !ok {
		return nil, false
	}
	cy, ok := y.(*constant.Int)
	if !ok || cx.Typ.BitSize != cy.Typ.BitSize {
		return nil, false
	}
	r := op(new(big.Int), cx.X, cy.X)
	return &constant.Int{Typ: cx.Typ, X: wrapSigned(r, cx.Typ.BitSize)}, true
}

// wrapSigned reduces v modulo 2^bits into the signed range.
func wrapSigned(v *big.Int, bits uint64) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	r := new(big.Int).Mod(v, mod)
	half := new(big.Int).Rsh(mod, 1)
	if bits > 1 && r.Cmp(half) >= 0 {
		r.Sub(r, mod)
	}
	return r
}

func unsignedOf(c *constant.Int) *big.Int {
	if c.X.Sign() >= 0 {
		return new(big.Int).Set(c.X)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(c.Typ.BitSize))
	return new(big.Int).Add(c.X, mod)
}
