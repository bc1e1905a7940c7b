package diagnostic

import "github.com/pqlc-dev/pqlc/internal/token"

// spanFromPosition approximates a zero-width Span from a lexer Position, the
// coarsest location the parser has before SpanMap-backed resolution starts.
func spanFromPosition(pos token.Position) token.Span {
	return token.Span{Start: uint32(pos.Offset), End: uint32(pos.Offset)}
}
