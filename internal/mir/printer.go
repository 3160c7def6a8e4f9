package mir

import (
	"fmt"
	"sort"
	"strings"
)

// Printer provides pretty-printing for MIR modules
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new MIR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the string representation of a module
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printModule(m *Module) {
	completeness := "incomplete"
	if m.Complete {
		completeness = "complete"
	}
	p.writeLine("MODULE %s (%s)", m.Name, completeness)
	p.writeLine("")

	for _, class := range m.Classes {
		p.printClass(class)
	}
	if len(m.Classes) > 0 {
		p.writeLine("")
	}

	for _, fn := range m.Functions {
		p.printFunction(fn)
		p.writeLine("")
	}
}

func (p *Printer) printClass(c *Class) {
	header := "class " + c.Name
	if c.Super != nil {
		header += " : " + c.Super.Name
	}
	if c.Open {
		header += " (open)"
	}
	p.writeLine("%s {", header)
	p.indent++
	names := make([]string, 0, len(c.Methods))
	for name := range c.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.writeLine("method %s -> @%s", name, c.Methods[name].Name)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printFunction(fn *Function) {
	params := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = fmt.Sprintf("%s: %s %s", param.Name, param.Type, param.Ownership)
	}
	qualifier := ""
	if fn.Public {
		qualifier = "public "
	}
	ret := ""
	if fn.ReturnType != nil {
		ret = " -> " + fn.ReturnType.String()
	}
	attr := ""
	if fn.Semantics != "" {
		attr = fmt.Sprintf("@semantics(%q)\n", fn.Semantics)
	}

	if !fn.IsDefinition() {
		p.writeLine("%s%sfunc @%s(%s)%s", attr, qualifier, fn.Name, strings.Join(params, ", "), ret)
		return
	}

	p.writeLine("%s%sfunc @%s(%s)%s {", attr, qualifier, fn.Name, strings.Join(params, ", "), ret)
	for _, block := range fn.Blocks {
		p.writeLine("%s:", block.Label)
		p.indent++
		for _, inst := range block.Instructions {
			p.writeLine("%s", inst)
		}
		if block.Terminator != nil {
			p.writeLine("%s", block.Terminator)
		}
		p.indent--
	}
	p.writeLine("}")
}
