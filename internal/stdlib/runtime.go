package stdlib

// The Sable runtime's array entry points. Each carries the semantics tag the
// optimizer recognizes, so a textual MIR file can reference them without
// declaring them: the parser materializes declarations from this registry.

import (
	"sable/internal/mir"
)

// ParameterDefinition defines one parameter of a runtime entry point
type ParameterDefinition struct {
	Name  string
	Type  string
	Owned bool // consumed by the callee (caller-owned reference handed over)
}

// FunctionDefinition defines a runtime entry point signature
type FunctionDefinition struct {
	Name       string
	Semantics  string
	Parameters []ParameterDefinition
	ReturnType string // empty for void
}

func param(name, typ string) ParameterDefinition {
	return ParameterDefinition{Name: name, Type: typ}
}

func ownedParam(name, typ string) ParameterDefinition {
	return ParameterDefinition{Name: name, Type: typ, Owned: true}
}

// ArrayFunctions returns the semantics-tagged array runtime entry points.
func ArrayFunctions() []FunctionDefinition {
	return []FunctionDefinition{
		{
			Name:       "Array.isNative",
			Semantics:  "array.props.isNative",
			Parameters: []ParameterDefinition{param("self", "Array")},
			ReturnType: "Bool",
		},
		{
			Name:       "Array.needsElementTypeCheck",
			Semantics:  "array.props.needsElementTypeCheck",
			Parameters: []ParameterDefinition{param("self", "Array")},
			ReturnType: "Bool",
		},
		{
			Name:       "Array.check_subscript",
			Semantics:  "array.check_subscript",
			Parameters: []ParameterDefinition{param("self", "Array"), param("index", "Int")},
		},
		{
			Name:       "Array.check_index",
			Semantics:  "array.check_index",
			Parameters: []ParameterDefinition{param("self", "Array"), param("index", "Int")},
		},
		{
			Name:       "Array.get_count",
			Semantics:  "array.get_count",
			Parameters: []ParameterDefinition{param("self", "Array")},
			ReturnType: "Int",
		},
		{
			Name:       "Array.get_capacity",
			Semantics:  "array.get_capacity",
			Parameters: []ParameterDefinition{param("self", "Array")},
			ReturnType: "Int",
		},
		{
			Name:       "Array.get_element",
			Semantics:  "array.get_element",
			Parameters: []ParameterDefinition{param("self", "Array"), param("index", "Int")},
			ReturnType: "Elem",
		},
		{
			Name:       "Array.get_element_address",
			Semantics:  "array.get_element_address",
			Parameters: []ParameterDefinition{param("self", "Array"), param("index", "Int")},
			ReturnType: "RawPointer",
		},
		{
			Name:       "Array.make_mutable",
			Semantics:  "array.make_mutable",
			Parameters: []ParameterDefinition{ownedParam("self", "Array")},
			ReturnType: "Array",
		},
		{
			Name:       "Array.mutate_unknown",
			Semantics:  "array.mutate_unknown",
			Parameters: []ParameterDefinition{ownedParam("self", "Array")},
			ReturnType: "Array",
		},
		{
			Name:       "Array.init",
			Semantics:  "array.init",
			Parameters: []ParameterDefinition{param("count", "Int"), ownedParam("value", "Elem")},
			ReturnType: "Array",
		},
		{
			Name:       "Array.uninitialized",
			Semantics:  "array.uninitialized",
			Parameters: []ParameterDefinition{param("count", "Int")},
			ReturnType: "Array",
		},
	}
}

// Lookup returns the definition for a runtime entry point name, or nil.
func Lookup(name string) *FunctionDefinition {
	for _, def := range ArrayFunctions() {
		if def.Name == name {
			return &def
		}
	}
	return nil
}

// IsKnownFunction checks if a name is a runtime entry point
func IsKnownFunction(name string) bool {
	return Lookup(name) != nil
}

// Materialize converts a definition into a MIR function declaration and
// registers it with the module.
func Materialize(def *FunctionDefinition, m *mir.Module) *mir.Function {
	params := make([]*mir.Parameter, len(def.Parameters))
	for i, p := range def.Parameters {
		ownership := mir.Guaranteed
		if p.Owned {
			ownership = mir.Owned
		}
		params[i] = &mir.Parameter{
			Name:      p.Name,
			Type:      mir.TypeFromName(p.Type),
			Ownership: ownership,
		}
	}
	var ret mir.Type
	if def.ReturnType != "" {
		ret = mir.TypeFromName(def.ReturnType)
	}
	fn := mir.NewFunction(def.Name, params, ret)
	fn.Semantics = def.Semantics
	m.AddFunction(fn)
	return fn
}
