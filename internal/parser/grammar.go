package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Textual MIR grammar. A .smir file holds one module: a header, class
// declarations, and function declarations/definitions.

var mirLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `//[^\n]*`, nil},

		// String literals (semantics tags)
		{"String", `"(\\"|[^"])*"`, nil},

		// Keywords and Identifiers
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},

		// Integer literals
		{"Integer", `-?(0x[0-9a-fA-F]+|[0-9]+)`, nil},

		// Arrow (must come before punctuation)
		{"Arrow", `->`, nil},

		// Punctuation
		{"Punctuation", `[{}()\[\]#:,;.%@=*]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// File is the root of a parsed .smir file
type File struct {
	Module *ModuleHeader `@@`
	Decls  []*Decl       `@@*`
}

type ModuleHeader struct {
	Name     string `"module" @Ident`
	Complete bool   `@"complete"?`
}

type Decl struct {
	Class *ClassDecl `  @@`
	Func  *FuncDecl  `| @@`
}

type ClassDecl struct {
	Pos     lexer.Position
	Name    string        `"class" @Ident`
	Super   string        `(":" @Ident)?`
	Open    bool          `@"open"?`
	Methods []*MethodDecl `"{" @@* "}"`
}

type MethodDecl struct {
	Pos  lexer.Position
	Name string    `"method" @Ident "="`
	Impl *FuncName `@@`
}

// FuncName is an @-prefixed, possibly dotted function name
// (e.g. @main, @Array.get_element)
type FuncName struct {
	Pos   lexer.Position
	Parts []string `"@" @Ident ("." @Ident)*`
}

type FuncDecl struct {
	Pos       lexer.Position
	Semantics *string      `("@" "semantics" "(" @String ")")?`
	Public    bool         `@"public"?`
	Name      *FuncName    `"func" @@`
	Params    []*ParamDecl `"(" (@@ ("," @@)*)? ")"`
	Return    string       `(Arrow @Ident)?`
	Blocks    []*BlockDecl `("{" @@* "}")?`
}

type ParamDecl struct {
	Pos       lexer.Position
	Name      string `@Ident ":"`
	Type      string `@Ident`
	Ownership string `@("owned" | "guaranteed")?`
}

type BlockDecl struct {
	Pos    lexer.Position
	Label  string       `@Ident ":"`
	Instrs []*InstrDecl `@@*`
}

type InstrDecl struct {
	Pos         lexer.Position
	Assign      *AssignInstr `  @@`
	ApplyStmt   *ApplyExpr   `| @@`
	Retain      *RetainInstr `| @@`
	Release     *ReleaseInstr `| @@`
	Store       *StoreInstr  `| @@`
	Return      *ReturnInstr `| @@`
	Branch      *BranchInstr `| @@`
	Jump        *JumpInstr   `| @@`
	Unreachable bool         `| @"unreachable"`
}

type AssignInstr struct {
	Result string  `"%" @Ident "="`
	Value  *RValue `@@`
}

type RValue struct {
	Const   *ConstExpr   `  @@`
	FuncRef *FuncRefExpr `| @@`
	Method  *MethodExpr  `| @@`
	Apply   *ApplyExpr   `| @@`
}

type ConstExpr struct {
	Value string `"const" @(Integer | "true" | "false") ":"`
	Type  string `@Ident`
}

type FuncRefExpr struct {
	Name *FuncName `"function_ref" @@`
}

type MethodExpr struct {
	Receiver string `"class_method" "%" @Ident ","`
	Class    string `"#" @Ident "."`
	Method   string `@Ident`
}

type ApplyExpr struct {
	Pos    lexer.Position
	Callee string   `"apply" "%" @Ident`
	Args   []string `"(" ("%" @Ident ("," "%" @Ident)*)? ")"`
}

type RetainInstr struct {
	Operand string `"retain" "%" @Ident`
}

type ReleaseInstr struct {
	Operand string `"release" "%" @Ident`
}

type StoreInstr struct {
	Value   string `"store" "%" @Ident`
	Address string `"to" "%" @Ident`
}

type ReturnInstr struct {
	Keyword string `@"return"`
	Value   string `("%" @Ident)?`
}

type BranchInstr struct {
	Condition  string `"branch" "%" @Ident ","`
	TrueBlock  string `@Ident ","`
	FalseBlock string `@Ident`
}

type JumpInstr struct {
	Target string `"jump" @Ident`
}
