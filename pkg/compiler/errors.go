package compiler

import "fmt"

// CompileError is a spec.md §7 "Compiler error": an ill-formed program.
// Compilation of the offending top-level form aborts; forms already
// compiled and executed remain in effect.
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %s", e.Msg)
}

func compileErrorf(format string, args ...any) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...)}
}
