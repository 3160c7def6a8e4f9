package mir

import (
	"fmt"
	"strings"

	"sable/internal/builtins"
)

// Type is the interface implemented by all MIR types. MIR types are
// structural: two types are interchangeable iff their printed forms match.
type Type interface {
	String() string
}

// IntType is a fixed-width integer type
type IntType struct {
	Bits int
}

// BoolType is the boolean type
type BoolType struct{}

// NamedType refers to a nominal type by name (structs, stdlib types)
type NamedType struct {
	Name string
}

// ArrayType is the copy-on-write array type of the Sable runtime
type ArrayType struct {
	Element Type
}

// AddressType is the address of a memory location holding Target
type AddressType struct {
	Target Type
}

// ClassType is a reference to a class instance
type ClassType struct {
	Class *Class
}

// FunctionType is the type of a function value
type FunctionType struct {
	Params []Type
	Return Type
}

// TupleType groups multiple values; the empty tuple is MIR's unit type
type TupleType struct {
	Elements []Type
}

func (i *IntType) String() string {
	switch i.Bits {
	case 32:
		return string(builtins.Int32)
	case 64:
		return string(builtins.Int64)
	default:
		return string(builtins.Int)
	}
}

func (b *BoolType) String() string    { return string(builtins.Bool) }
func (n *NamedType) String() string   { return n.Name }
func (a *ArrayType) String() string   { return fmt.Sprintf("Array<%s>", a.Element) }
func (a *AddressType) String() string { return fmt.Sprintf("*%s", a.Target) }
func (c *ClassType) String() string   { return c.Class.Name }

func (f *FunctionType) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	ret := "()"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), ret)
}

func (t *TupleType) String() string {
	if len(t.Elements) == 0 {
		return "()"
	}
	elems := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elems[i] = e.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}

// TypeFromName resolves builtin type names; unknown names become NamedType.
func TypeFromName(name string) Type {
	switch builtins.BuiltinType(name) {
	case builtins.Int:
		return &IntType{Bits: 0}
	case builtins.Int32:
		return &IntType{Bits: 32}
	case builtins.Int64:
		return &IntType{Bits: 64}
	case builtins.Bool:
		return &BoolType{}
	default:
		return &NamedType{Name: name}
	}
}
