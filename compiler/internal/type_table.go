package internal

import "strings"

// Kinds produced by expression inference besides declared type names.
const (
	unknownKind = ""
	lambdaKind  = "lambda"
	arrayKind   = "array"
	objectKind  = "object"
)

// TypeTable decides whether a value of the inferred kind may be stored in a slot of the
// declared type.
type TypeTable interface {
	Accepts(declared string, inferred string) bool
}

// DefaultTypeTable accepts identical kinds, int into double, arrays into T[] and objects
// into {k: v}. Values whose kind could not be inferred are always accepted.
type DefaultTypeTable struct{}

func (DefaultTypeTable) Accepts(declared string, inferred string) bool {
	switch {
	case inferred == unknownKind, inferred == lambdaKind, declared == inferred:
		return true
	case declared == "double":
		return inferred == "int"
	case strings.HasSuffix(declared, "[]"):
		return inferred == arrayKind
	case strings.HasPrefix(declared, "{"):
		return inferred == objectKind
	}
	return false
}
