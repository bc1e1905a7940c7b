package parser

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/token"
)

// SyntaxError is a parse-time error (§7 class 1, surfaced unchanged by
// the resolver/lowerer since it never reaches them).
type SyntaxError struct {
	Pos     token.Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Message)
}
