package datatype

import (
	"farnese/internal/diag"
	"farnese/internal/symbol"
)

// Lookup resolves a type by name; modules provide one over their type table.
type Lookup func(symbol.Symbol) (DataType, bool)

// Supertypes walks the supertype links of t, starting with t itself and
// ending at the root of its hierarchy.
func Supertypes(t DataType, lookup Lookup) ([]DataType, error) {
	chain := []DataType{t}
	seen := map[symbol.Symbol]bool{t.Name: true}
	cur := t
	for !cur.IsRoot() {
		next, ok := lookup(cur.Supertype)
		if !ok {
			return chain, diag.Errorf(diag.SemaUndefinedType, cur.Supertype.Name(),
				"supertype %s of %s is not declared", cur.Supertype, cur.Name)
		}
		if seen[next.Name] {
			return chain, diag.Errorf(diag.SemaTypeMismatch, next.Name.Name(),
				"supertype cycle through %s", next.Name)
		}
		seen[next.Name] = true
		chain = append(chain, next)
		cur = next
	}
	return chain, nil
}

// IsSubtype reports whether t equals super or has it among its supertypes.
func IsSubtype(t, super DataType, lookup Lookup) (bool, error) {
	chain, err := Supertypes(t, lookup)
	if err != nil {
		return false, err
	}
	for _, c := range chain {
		if c.Name == super.Name {
			return true, nil
		}
	}
	return false, nil
}
