package backend

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/diag"
)

// CheckLink reports the first conflict Link would hit, without changing dst.
func CheckLink(dst, src *Namespace) error {
	for name, st := range src.structs {
		if local, ok := dst.structs[name]; ok && local != st && !sameLayout(local, st) {
			return diag.Errorf(diag.LinkConflictingType, name,
				"struct layout %s differs between %s and %s", name, dst.name, src.name)
		}
	}
	for name, f := range src.funcs {
		if local, ok := dst.funcs[name]; ok && !types.Equal(local.Sig, f.Sig) {
			return diag.Errorf(diag.LinkConflictingType, name,
				"function %s is %s in %s but %s in %s", name, local.Sig.LLString(), dst.name, f.Sig.LLString(), src.name)
		}
	}
	for name, g := range src.globals {
		if local, ok := dst.globals[name]; ok && !types.Equal(local.ContentType, g.ContentType) {
			return diag.Errorf(diag.LinkConflictingType, name,
				"global %s has different types in %s and %s", name, dst.name, src.name)
		}
	}
	return nil
}

// Link makes every struct layout, function and global of src visible in dst
// as external declarations. Either everything is merged or dst is untouched.
func Link(dst, src *Namespace) error {
	if err := CheckLink(dst, src); err != nil {
		return err
	}
	for _, st := range src.m.TypeDefs {
		name := st.Name()
		if _, ok := dst.structs[name]; ok {
			continue
		}
		if s, ok := st.(*types.StructType); ok {
			dst.m.TypeDefs = append(dst.m.TypeDefs, s)
			dst.structs[name] = s
		}
	}
	for _, f := range src.m.Funcs {
		if _, ok := dst.funcs[f.Name()]; ok {
			continue
		}
		params := make([]*ir.Param, len(f.Params))
		for i, p := range f.Params {
			params[i] = ir.NewParam(p.LocalName, p.Typ)
		}
		decl := dst.declare(f.Name(), f.Sig.RetType, params...)
		decl.Sig.Variadic = f.Sig.Variadic
	}
	for _, g := range src.m.Globals {
		name := g.Name()
		if _, private := src.privateString(g); private {
			continue
		}
		if _, ok := dst.globals[name]; ok {
			continue
		}
		dst.globals[name] = dst.m.NewGlobal(name, g.ContentType)
	}
	return nil
}

func (ns *Namespace) privateString(g *ir.Global) (string, bool) {
	for s, cs := range ns.cstrings {
		if cs == g {
			return s, true
		}
	}
	return "", false
}

// sameLayout compares struct bodies. Named field types compare by name.
func sameLayout(a, b *types.StructType) bool {
	if a.Packed != b.Packed || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if !types.Equal(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}
