package errors

// Error codes for the Sable MIR tools
// These codes identify diagnostics consistently across the toolchain.
//
// Error code ranges:
// M0001-M0099: MIR parse errors
// M0100-M0199: MIR verification errors
// M0800-M0899: Warning codes

const (
	// M0001: Syntax errors from the textual MIR parser
	ErrorSyntax = "M0001"

	// M0002: Reference to a function that is neither declared in the file
	// nor known to the runtime registry
	ErrorUndefinedFunction = "M0002"

	// M0003: Reference to an undefined value
	ErrorUndefinedValue = "M0003"

	// M0004: Reference to an undefined block label
	ErrorUndefinedBlock = "M0004"

	// M0005: Reference to an undefined class
	ErrorUndefinedClass = "M0005"

	// M0006: Duplicate definition (function, block label, value name)
	ErrorDuplicateDefinition = "M0006"

	// M0100: Structural verification failure
	ErrorVerification = "M0100"

	// W0001: A declared function is never referenced
	WarningUnusedDeclaration = "W0001"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "The MIR source does not match the textual grammar"
	case ErrorUndefinedFunction:
		return "Function is referenced but not declared or known to the runtime registry"
	case ErrorUndefinedValue:
		return "Value is used but not defined earlier in the function"
	case ErrorUndefinedBlock:
		return "Branch target label does not name a block in this function"
	case ErrorUndefinedClass:
		return "Class is referenced but not declared"
	case ErrorDuplicateDefinition:
		return "Duplicate definition found"
	case ErrorVerification:
		return "Module violates a structural MIR invariant"
	case WarningUnusedDeclaration:
		return "Declaration is never referenced"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the code represents a warning rather than an error
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}
