// Package resolve implements §4.2: it walks Unresolved module decls,
// resolves every identifier, expands function calls and the eleven
// standard transforms, infers types, and computes lineage.
package resolve

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/ast"
	"github.com/pqlc-dev/pqlc/internal/token"
)

// Error is the common shape every resolver error satisfies; callers
// switch on the concrete type for diagnostics (§4.2.6, §7).
type Error interface {
	error
	Span() token.Span
}

type baseErr struct {
	span token.Span
}

func (b baseErr) Span() token.Span { return b.span }

// NameNotFoundError reports an identifier that resolved to nothing.
type NameNotFoundError struct {
	baseErr
	Ident ast.Ident
	Hint  []string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("name not found: %q", e.Ident.String())
}

// AmbiguousNameError reports two redirects resolving the same ident.
type AmbiguousNameError struct {
	baseErr
	Ident      ast.Ident
	Candidates []ast.Ident
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("ambiguous name %q", e.Ident.String())
}

// TypeMismatchError covers argument type checks and directive validation.
type TypeMismatchError struct {
	baseErr
	Expected string
	Found    string
	Who      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, found %s", e.Who, e.Expected, e.Found)
}

// BadTransformError reports a malformed transform argument, e.g. a
// `group` key that is not a plain column.
type BadTransformError struct {
	baseErr
	Reason string
}

func (e *BadTransformError) Error() string { return e.Reason }

// TooManyArgsError reports a call with more args than the function has
// parameters for.
type TooManyArgsError struct {
	baseErr
	FuncName string
	Max      int
	Got      int
}

func (e *TooManyArgsError) Error() string {
	return fmt.Sprintf("too many arguments to %s: want at most %d, got %d", e.FuncName, e.Max, e.Got)
}

// UnknownNamedArgError reports a named argument with no matching param.
type UnknownNamedArgError struct {
	baseErr
	FuncName string
	ArgName  string
}

func (e *UnknownNamedArgError) Error() string {
	return fmt.Sprintf("%s has no parameter named %q", e.FuncName, e.ArgName)
}

// RelationInstanceUsedAsValueError reports a table ident used where a
// column was expected.
type RelationInstanceUsedAsValueError struct {
	baseErr
	Ident ast.Ident
}

func (e *RelationInstanceUsedAsValueError) Error() string {
	return fmt.Sprintf("%q is a relation, not a column; did you mean %s.<column>?", e.Ident.String(), e.Ident.String())
}

// MainNotFoundError is E0001: no `main` pipeline in the root module.
type MainNotFoundError struct{ baseErr }

func (e *MainNotFoundError) Error() string { return "no `main` pipeline found (E0001)" }

// VersionMismatchError reports an incompatible `prql version:"..."`.
type VersionMismatchError struct {
	baseErr
	Declared   string
	Compiler   string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("declared version %q is incompatible with compiler version %s", e.Declared, e.Compiler)
}
