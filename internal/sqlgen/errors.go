package sqlgen

import "fmt"

// UnsupportedOperatorError is §4.4.5/§4.5.2's error for an operator whose
// dialect-table entry is empty: the target dialect genuinely cannot
// express it (e.g. a function absent from SQLite).
type UnsupportedOperatorError struct {
	Name    string
	Dialect string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("sqlgen: operator %q is not supported by dialect %q", e.Name, e.Dialect)
}

// NonLiteralFormatError is §4.5.2's error for std.date.to_text called
// with a format argument that isn't a string literal, so it cannot be
// translated through the dialect's chrono-format table ahead of time.
type NonLiteralFormatError struct{ Operator string }

func (e *NonLiteralFormatError) Error() string {
	return fmt.Sprintf("sqlgen: %s requires a literal format string", e.Operator)
}
