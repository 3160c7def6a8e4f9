package parser

import (
	"fmt"
	"strconv"
	"strings"

	plexer "github.com/alecthomas/participle/v2/lexer"

	"sable/internal/errors"
	"sable/internal/mir"
	"sable/internal/stdlib"
)

// lowerer converts a parsed file into a mir.Module. Lowering runs in two
// phases: first every class and function signature is registered, then
// bodies are built. This lets a body reference a function or class declared
// later in the file.
type lowerer struct {
	file   *File
	module *mir.Module
	diags  []errors.Diagnostic
}

func lower(file *File) (*mir.Module, []errors.Diagnostic) {
	l := &lowerer{file: file, module: mir.NewModule(file.Module.Name)}
	l.module.Complete = file.Module.Complete

	l.declareClasses()
	l.declareFunctions()
	l.bindMethods()
	l.lowerBodies()

	return l.module, l.diags
}

func (l *lowerer) errorf(pos plexer.Position, code string, length int, format string, args ...interface{}) {
	l.diags = append(l.diags, errors.Diagnostic{
		Level:    errors.Error,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: position(pos),
		Length:   length,
	})
}

func (l *lowerer) declareClasses() {
	for _, decl := range l.file.Decls {
		cd := decl.Class
		if cd == nil {
			continue
		}
		if l.module.ClassNamed(cd.Name) != nil {
			l.errorf(cd.Pos, errors.ErrorDuplicateDefinition, len(cd.Name),
				"class '%s' is declared more than once", cd.Name)
			continue
		}
		var super *mir.Class
		if cd.Super != "" {
			super = l.module.ClassNamed(cd.Super)
			if super == nil {
				l.errorf(cd.Pos, errors.ErrorUndefinedClass, len(cd.Super),
					"superclass '%s' is not declared before '%s'", cd.Super, cd.Name)
			}
		}
		l.module.AddClass(mir.NewClass(cd.Name, super, cd.Open))
	}
}

func (l *lowerer) declareFunctions() {
	for _, decl := range l.file.Decls {
		fd := decl.Func
		if fd == nil {
			continue
		}
		name := fd.Name.join()
		if l.module.FunctionNamed(name) != nil {
			l.errorf(fd.Name.Pos, errors.ErrorDuplicateDefinition, len(name),
				"function '@%s' is declared more than once", name)
			continue
		}

		params := make([]*mir.Parameter, len(fd.Params))
		for i, pd := range fd.Params {
			ownership := mir.Guaranteed
			if pd.Ownership == "owned" {
				ownership = mir.Owned
			}
			params[i] = &mir.Parameter{
				Name:      pd.Name,
				Type:      mir.TypeFromName(pd.Type),
				Ownership: ownership,
			}
		}
		var ret mir.Type
		if fd.Return != "" {
			ret = mir.TypeFromName(fd.Return)
		}

		fn := mir.NewFunction(name, params, ret)
		fn.Public = fd.Public
		if fd.Semantics != nil {
			fn.Semantics = unquote(*fd.Semantics)
		}
		l.module.AddFunction(fn)
	}
}

// bindMethods attaches method implementations to classes. Implementations
// missing from the file but known to the runtime registry are materialized
// as declarations.
func (l *lowerer) bindMethods() {
	for _, decl := range l.file.Decls {
		cd := decl.Class
		if cd == nil {
			continue
		}
		class := l.module.ClassNamed(cd.Name)
		if class == nil {
			continue
		}
		for _, md := range cd.Methods {
			if _, exists := class.Methods[md.Name]; exists {
				l.errorf(md.Pos, errors.ErrorDuplicateDefinition, len(md.Name),
					"method '%s' is declared more than once on class '%s'", md.Name, cd.Name)
				continue
			}
			impl := l.resolveFunction(md.Impl)
			if impl == nil {
				continue
			}
			class.AddMethod(md.Name, impl)
		}
	}
}

// resolveFunction finds a referenced function, falling back to the runtime
// registry for undeclared semantics-tagged entry points. Emits a diagnostic
// and returns nil when the name is unknown everywhere.
func (l *lowerer) resolveFunction(name *FuncName) *mir.Function {
	joined := name.join()
	if fn := l.module.FunctionNamed(joined); fn != nil {
		return fn
	}
	if def := stdlib.Lookup(joined); def != nil {
		return stdlib.Materialize(def, l.module)
	}
	l.errorf(name.Pos, errors.ErrorUndefinedFunction, len(joined)+1,
		"function '@%s' is not declared and is not a known runtime entry point", joined)
	return nil
}

func (l *lowerer) lowerBodies() {
	for _, decl := range l.file.Decls {
		fd := decl.Func
		if fd == nil || len(fd.Blocks) == 0 {
			continue
		}
		fn := l.module.FunctionNamed(fd.Name.join())
		if fn == nil || fn.IsDefinition() {
			continue
		}
		l.lowerBody(fn, fd)
	}
}

type bodyScope struct {
	values map[string]*mir.Value
	blocks map[string]*mir.BasicBlock
}

func (l *lowerer) lowerBody(fn *mir.Function, fd *FuncDecl) {
	scope := &bodyScope{
		values: map[string]*mir.Value{},
		blocks: map[string]*mir.BasicBlock{},
	}
	for _, p := range fn.Params {
		p.Value.Name = p.Name
		scope.values[p.Name] = p.Value
	}

	// Blocks are created up front so branches can target labels that appear
	// later in the function.
	duplicate := map[*BlockDecl]bool{}
	for _, bd := range fd.Blocks {
		if _, exists := scope.blocks[bd.Label]; exists {
			l.errorf(bd.Pos, errors.ErrorDuplicateDefinition, len(bd.Label),
				"block label '%s' is defined more than once in '@%s'", bd.Label, fn.Name)
			duplicate[bd] = true
			continue
		}
		scope.blocks[bd.Label] = fn.NewBlock(bd.Label)
	}

	builder := mir.NewBuilder(l.module, fn, fn.Entry())
	for _, bd := range fd.Blocks {
		if duplicate[bd] {
			continue
		}
		builder.SetBlock(scope.blocks[bd.Label])
		for _, id := range bd.Instrs {
			l.lowerInstr(builder, scope, fn, id)
		}
	}
}

func (l *lowerer) lowerInstr(b *mir.Builder, scope *bodyScope, fn *mir.Function, id *InstrDecl) {
	switch {
	case id.Assign != nil:
		l.lowerAssign(b, scope, id.Pos, id.Assign)
	case id.ApplyStmt != nil:
		l.lowerApply(b, scope, id.ApplyStmt, "")
	case id.Retain != nil:
		if v := l.lookupValue(scope, id.Pos, id.Retain.Operand); v != nil {
			b.Retain(v)
		}
	case id.Release != nil:
		if v := l.lookupValue(scope, id.Pos, id.Release.Operand); v != nil {
			b.Release(v)
		}
	case id.Store != nil:
		value := l.lookupValue(scope, id.Pos, id.Store.Value)
		address := l.lookupValue(scope, id.Pos, id.Store.Address)
		if value != nil && address != nil {
			b.Store(value, address)
		}
	case id.Return != nil:
		var value *mir.Value
		if id.Return.Value != "" {
			value = l.lookupValue(scope, id.Pos, id.Return.Value)
		}
		b.Return(value)
	case id.Branch != nil:
		cond := l.lookupValue(scope, id.Pos, id.Branch.Condition)
		trueBlock := l.lookupBlock(scope, fn, id.Pos, id.Branch.TrueBlock)
		falseBlock := l.lookupBlock(scope, fn, id.Pos, id.Branch.FalseBlock)
		if cond != nil && trueBlock != nil && falseBlock != nil {
			b.Branch(cond, trueBlock, falseBlock)
		}
	case id.Jump != nil:
		if target := l.lookupBlock(scope, fn, id.Pos, id.Jump.Target); target != nil {
			b.Jump(target)
		}
	case id.Unreachable:
		b.Unreachable()
	}
}

func (l *lowerer) lowerAssign(b *mir.Builder, scope *bodyScope, pos plexer.Position, assign *AssignInstr) {
	name := assign.Result
	if _, exists := scope.values[name]; exists {
		l.errorf(pos, errors.ErrorDuplicateDefinition, len(name)+1,
			"value '%%%s' is assigned more than once", name)
		return
	}

	var result *mir.Value
	switch {
	case assign.Value.Const != nil:
		c := assign.Value.Const
		inst := b.Const(name, constValue(c.Value), mir.TypeFromName(c.Type))
		result = inst.Result
	case assign.Value.FuncRef != nil:
		fn := l.resolveFunction(assign.Value.FuncRef.Name)
		if fn == nil {
			return
		}
		inst := b.FunctionRef(fn)
		inst.Result.Name = name
		result = inst.Result
	case assign.Value.Method != nil:
		m := assign.Value.Method
		receiver := l.lookupValue(scope, pos, m.Receiver)
		class := l.module.ClassNamed(m.Class)
		if class == nil {
			l.errorf(pos, errors.ErrorUndefinedClass, len(m.Class),
				"class '%s' is not declared", m.Class)
			return
		}
		if receiver == nil {
			return
		}
		inst := b.ClassMethod(receiver, class, m.Method)
		inst.Result.Name = name
		result = inst.Result
	case assign.Value.Apply != nil:
		result = l.lowerApply(b, scope, assign.Value.Apply, name)
	}

	if result != nil {
		scope.values[name] = result
	}
}

func (l *lowerer) lowerApply(b *mir.Builder, scope *bodyScope, apply *ApplyExpr, resultName string) *mir.Value {
	callee := l.lookupValue(scope, apply.Pos, apply.Callee)
	if callee == nil {
		return nil
	}
	args := make([]*mir.Value, 0, len(apply.Args))
	for _, argName := range apply.Args {
		arg := l.lookupValue(scope, apply.Pos, argName)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	inst := b.Apply(callee, args...)
	if inst.Result != nil && resultName != "" {
		inst.Result.Name = resultName
	}
	return inst.Result
}

func (l *lowerer) lookupValue(scope *bodyScope, pos plexer.Position, name string) *mir.Value {
	if v, ok := scope.values[name]; ok {
		return v
	}
	l.errorf(pos, errors.ErrorUndefinedValue, len(name)+1,
		"value '%%%s' is not defined", name)
	return nil
}

func (l *lowerer) lookupBlock(scope *bodyScope, fn *mir.Function, pos plexer.Position, label string) *mir.BasicBlock {
	if block, ok := scope.blocks[label]; ok {
		return block
	}
	l.errorf(pos, errors.ErrorUndefinedBlock, len(label),
		"block '%s' does not exist in '@%s'", label, fn.Name)
	return nil
}

func (n *FuncName) join() string {
	return strings.Join(n.Parts, ".")
}

func unquote(s string) string {
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return strings.Trim(s, `"`)
}

func constValue(text string) interface{} {
	switch text {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return i
	}
	return text
}
