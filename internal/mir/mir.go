package mir

// This package holds the Sable mid-level IR (MIR): functions made of basic
// blocks of typed instructions in SSA form. The optimizer's call graph and
// array-semantics layers operate directly on this representation.

import "fmt"

// Module is the unit of compilation: the full set of functions and classes
// visible to one optimizer run.
type Module struct {
	Name      string
	Functions []*Function
	Classes   []*Class

	// Complete is true when no further functions will be linked into this
	// module. Only then may virtual dispatch sets be certified exhaustive.
	Complete bool

	nextInstID       int
	nextApplyOrdinal int
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddFunction appends a function to the module. Adding a function with a
// duplicate name is a programming error.
func (m *Module) AddFunction(fn *Function) {
	for _, existing := range m.Functions {
		if existing.Name == fn.Name {
			panic(fmt.Sprintf("mir: duplicate function %q in module %q", fn.Name, m.Name))
		}
	}
	fn.module = m
	m.Functions = append(m.Functions, fn)
}

// RemoveFunction deletes a function from the module. Removing a function
// that is not present is a programming error.
func (m *Module) RemoveFunction(fn *Function) {
	for i, existing := range m.Functions {
		if existing == fn {
			m.Functions = append(m.Functions[:i], m.Functions[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("mir: removing unknown function %q from module %q", fn.Name, m.Name))
}

// FunctionNamed returns the function with the given name, or nil.
func (m *Module) FunctionNamed(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// AddClass registers a class and links it into its superclass's subclass list.
func (m *Module) AddClass(c *Class) {
	c.module = m
	if c.Super != nil {
		c.Super.Subclasses = append(c.Super.Subclasses, c)
	}
	m.Classes = append(m.Classes, c)
}

// ClassNamed returns the class with the given name, or nil.
func (m *Module) ClassNamed(name string) *Class {
	for _, c := range m.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (m *Module) newInstID() int {
	id := m.nextInstID
	m.nextInstID++
	return id
}

// newApplyOrdinal hands out call-site ordinals in discovery order. Ordinals
// are used for deterministic ordering only, never for callee-set correctness.
func (m *Module) newApplyOrdinal() int {
	ord := m.nextApplyOrdinal
	m.nextApplyOrdinal++
	return ord
}

// Ownership describes the reference-counting convention of a parameter.
type Ownership int

const (
	// Guaranteed parameters are borrowed: the caller keeps its reference and
	// the callee must not consume it.
	Guaranteed Ownership = iota
	// Owned parameters are consumed: the callee is responsible for releasing
	// the reference it receives.
	Owned
)

func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "guaranteed"
}

// Parameter is a function parameter together with its ownership convention.
type Parameter struct {
	Name      string
	Type      Type
	Ownership Ownership
	Value     *Value // the SSA value visible inside the function body
}

// Function is an ordered set of basic blocks. A function with no blocks is a
// declaration: its body lives outside this module.
type Function struct {
	Name string

	// Public functions are visible outside the module; an unknown external
	// caller may exist for them.
	Public bool

	// Semantics carries the runtime-knowledge tag attached to certain
	// standard library functions (e.g. "array.get_element"). Empty for
	// ordinary functions.
	Semantics string

	Params     []*Parameter
	ReturnType Type
	Blocks     []*BasicBlock

	module *Module
}

// NewFunction creates a function and SSA values for its parameters.
func NewFunction(name string, params []*Parameter, returnType Type) *Function {
	fn := &Function{Name: name, Params: params, ReturnType: returnType}
	for i, p := range params {
		p.Value = &Value{
			Name: fmt.Sprintf("%s#%d", name, i),
			Type: p.Type,
		}
	}
	return fn
}

// IsDefinition reports whether the function body is present in this module.
func (f *Function) IsDefinition() bool {
	return len(f.Blocks) > 0
}

// Entry returns the entry block, or nil for declarations.
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Module returns the owning module, or nil if the function is detached.
func (f *Function) Module() *Module {
	return f.module
}

// Applies returns every call site in the function in block/program order.
func (f *Function) Applies() []*ApplyInst {
	var applies []*ApplyInst
	for _, block := range f.Blocks {
		for _, inst := range block.Instructions {
			if apply, ok := inst.(*ApplyInst); ok {
				applies = append(applies, apply)
			}
		}
	}
	return applies
}

// Class describes one class in the module's hierarchy, with the methods it
// declares or overrides.
type Class struct {
	Name  string
	Super *Class

	// Open classes may be subclassed outside this module, so their method
	// dispatch sets can never be certified exhaustive.
	Open bool

	Methods    map[string]*Function
	Subclasses []*Class

	module *Module
}

// NewClass creates a class with no methods.
func NewClass(name string, super *Class, open bool) *Class {
	return &Class{Name: name, Super: super, Open: open, Methods: map[string]*Function{}}
}

// AddMethod declares or overrides a method on the class.
func (c *Class) AddMethod(name string, impl *Function) {
	c.Methods[name] = impl
}

// Lookup resolves a method against the class, walking up the hierarchy.
func (c *Class) Lookup(method string) *Function {
	for cur := c; cur != nil; cur = cur.Super {
		if impl, ok := cur.Methods[method]; ok {
			return impl
		}
	}
	return nil
}

// SlotRoot returns the topmost class in the hierarchy that declares the
// method. All call sites dispatching through the same slot share it as their
// dispatch identity.
func (c *Class) SlotRoot(method string) *Class {
	root := c
	for cur := c; cur != nil; cur = cur.Super {
		if _, ok := cur.Methods[method]; ok {
			root = cur
		}
	}
	return root
}

// Overrides collects every implementation reachable through the method slot:
// the resolved implementation on the class itself plus every override in the
// subclass tree.
func (c *Class) Overrides(method string) []*Function {
	var impls []*Function
	seen := map[*Function]bool{}

	add := func(fn *Function) {
		if fn != nil && !seen[fn] {
			seen[fn] = true
			impls = append(impls, fn)
		}
	}

	add(c.Lookup(method))

	var walk func(cls *Class)
	walk = func(cls *Class) {
		if impl, ok := cls.Methods[method]; ok {
			add(impl)
		}
		for _, sub := range cls.Subclasses {
			walk(sub)
		}
	}
	for _, sub := range c.Subclasses {
		walk(sub)
	}
	return impls
}

// HasOpenSubclass reports whether the class or any known subclass is open to
// external subclassing.
func (c *Class) HasOpenSubclass() bool {
	if c.Open {
		return true
	}
	for _, sub := range c.Subclasses {
		if sub.HasOpenSubclass() {
			return true
		}
	}
	return false
}
