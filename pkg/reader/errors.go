package reader

import "fmt"

// SyntaxError is a spec.md §7 "Parser error": malformed input. The Stream
// has already been restored to its pre-attempt position by the time this
// is returned, and the offending form is not consumed.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Msg)
}

func syntaxErrorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}
