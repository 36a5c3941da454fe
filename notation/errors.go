package notation

import "fmt"

// SyntaxError reports a malformed token. Parsing always aborts on the first
// syntax error; no partial directive list is returned.
type SyntaxError struct {
	Offset  int
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d (offset %d): %s",
		e.Line, e.Column, e.Offset, e.Message)
}

func syntaxErrorf(tok token, format string, args ...any) error {
	return &SyntaxError{
		Offset:  tok.offset,
		Line:    tok.line,
		Column:  tok.column,
		Message: fmt.Sprintf(format, args...),
	}
}
