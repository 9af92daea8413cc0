package backend

import (
	"fmt"

	"github.com/llir/llvm/ir/types"

	"farnese/internal/datatype"
)

// BytePtr is the C string type.
var BytePtr = types.NewPointer(types.I8)

// ScalarType lowers a primitive's physical shape to an IR type.
func ScalarType(s datatype.Scalar) (types.Type, error) {
	switch s.Kind {
	case datatype.ScalarInt:
		switch s.Bits {
		case 1:
			return types.I1, nil
		case 8:
			return types.I8, nil
		case 16:
			return types.I16, nil
		case 32:
			return types.I32, nil
		case 64:
			return types.I64, nil
		}
	case datatype.ScalarFloat:
		switch s.Bits {
		case 16:
			return types.Half, nil
		case 32:
			return types.Float, nil
		case 64:
			return types.Double, nil
		}
	case datatype.ScalarString:
		return BytePtr, nil
	}
	return nil, fmt.Errorf("backend: no IR type for %s%d", s.Kind, s.Bits)
}

// IntBits returns the width of an IR integer type, or 0.
func IntBits(t types.Type) uint64 {
	if it, ok := t.(*types.IntType); ok {
		return it.BitSize
	}
	return 0
}
