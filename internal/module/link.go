package module

import (
	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/symbol"
)

// Link imports other's exports into m. Exported types are copied, exported
// methods enter the method table, and the whole backend namespace of other
// becomes visible as declarations. The link is validated before anything is
// changed: on error m is left exactly as it was.
func (m *Module) Link(other *Module) error {
	plan, err := m.planLink(other)
	if err != nil {
		return err
	}
	if err := backend.Link(m.Namespace(), other.Namespace()); err != nil {
		return diag.Attribute(err, m.name.Name())
	}
	for _, t := range plan.types {
		m.types[t.Name] = t.Clone()
	}
	for _, meth := range plan.methods {
		m.methods[meth.Name] = meth
	}
	return nil
}

type linkPlan struct {
	types   []datatype.DataType
	methods []Method
}

func (m *Module) planLink(other *Module) (linkPlan, error) {
	var plan linkPlan
	ns := other.Namespace()
	for _, name := range other.Exports() {
		if t, ok := other.types[name]; ok {
			if _, clash := m.types[name]; clash {
				return plan, m.errorf(diag.LinkConflictingType, name.Name(),
					"type %s exported by %s is already declared", name, other.name)
			}
			plan.types = append(plan.types, t)
			continue
		}
		meths := other.methodsNamed(name)
		if len(meths) > 0 {
			for _, meth := range meths {
				if local, ok := m.methods[meth.Name]; ok && !sameSignature(local, meth) {
					return plan, m.errorf(diag.LinkConflictingType, meth.Name.Name(),
						"method %s exported by %s has another signature here", meth.Name, other.name)
				}
			}
			plan.methods = append(plan.methods, meths...)
			continue
		}
		if _, ok := ns.Function(name.Name()); ok {
			continue
		}
		if _, ok := ns.Global(name.Name()); ok {
			continue
		}
		return plan, m.errorf(diag.SemaUndefinedSymbol, name.Name(),
			"%s exports %s but does not define it", other.name, name)
	}
	if err := backend.CheckLink(m.Namespace(), ns); err != nil {
		return plan, diag.Attribute(err, m.name.Name())
	}
	return plan, nil
}

// methodsNamed returns methods whose mangled or base name is name.
func (m *Module) methodsNamed(name symbol.Symbol) []Method {
	if meth, ok := m.methods[name]; ok {
		return []Method{meth}
	}
	var out []Method
	for _, meth := range m.Methods() {
		if meth.Base == name {
			out = append(out, meth)
		}
	}
	return out
}
