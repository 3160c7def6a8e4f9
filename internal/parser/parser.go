package parser

import (
	"github.com/alecthomas/participle/v2"
	plexer "github.com/alecthomas/participle/v2/lexer"

	"sable/internal/errors"
	"sable/internal/mir"
)

var mirParser = participle.MustBuild[File](
	participle.Lexer(mirLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// ParseFile parses textual MIR into its syntax tree.
func ParseFile(filename, source string) (*File, []errors.Diagnostic) {
	file, err := mirParser.ParseString(filename, source)
	if err != nil {
		return nil, []errors.Diagnostic{syntaxDiagnostic(err)}
	}
	return file, nil
}

// ParseModule parses and lowers textual MIR into a module. The module is
// returned even when diagnostics are present, so tools can report every
// problem in one run; callers must treat a module with error-level
// diagnostics as unusable.
func ParseModule(filename, source string) (*mir.Module, []errors.Diagnostic) {
	file, diags := ParseFile(filename, source)
	if file == nil {
		return nil, diags
	}
	return lower(file)
}

func syntaxDiagnostic(err error) errors.Diagnostic {
	diag := errors.Diagnostic{
		Level:   errors.Error,
		Code:    errors.ErrorSyntax,
		Message: err.Error(),
	}
	if perr, ok := err.(participle.Error); ok {
		diag.Message = perr.Message()
		diag.Position = position(perr.Position())
	}
	return diag
}

func position(pos plexer.Position) errors.Position {
	return errors.Position{Line: pos.Line, Column: pos.Column}
}
