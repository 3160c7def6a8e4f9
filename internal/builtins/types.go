package builtins

// BuiltinType represents the built-in value types of the Sable MIR type system
type BuiltinType string

const (
	// Integers
	Int   BuiltinType = "Int"
	Int32 BuiltinType = "Int32"
	Int64 BuiltinType = "Int64"

	// Other primitives
	Bool       BuiltinType = "Bool"
	RawPointer BuiltinType = "RawPointer"
	Never      BuiltinType = "Never"
)

// BuiltinTypes contains all valid built-in types
var BuiltinTypes = map[string]bool{
	string(Int):        true,
	string(Int32):      true,
	string(Int64):      true,
	string(Bool):       true,
	string(RawPointer): true,
	string(Never):      true,
}

// IsBuiltinType checks if a type name is a built-in type
func IsBuiltinType(typeName string) bool {
	return BuiltinTypes[typeName]
}

// IsIntegerType checks if a type is an integer type
func IsIntegerType(typeName string) bool {
	switch BuiltinType(typeName) {
	case Int, Int32, Int64:
		return true
	default:
		return false
	}
}
