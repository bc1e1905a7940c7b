package diagnostic

import (
	"errors"

	"github.com/pqlc-dev/pqlc/internal/module"
	"github.com/pqlc-dev/pqlc/internal/parser"
	"github.com/pqlc-dev/pqlc/internal/pq"
	"github.com/pqlc-dev/pqlc/internal/resolve"
	"github.com/pqlc-dev/pqlc/internal/sqlgen"
)

// Classify turns any error surfaced by a pipeline phase into a diagnostic
// Error, recovering a span and class from the concrete type where one is
// known (§7's taxonomy) and falling back to Internal for anything else.
func Classify(err error) *Error {
	var diag *Error
	if errors.As(err, &diag) {
		return diag
	}

	var syn *parser.SyntaxError
	if errors.As(err, &syn) {
		return &Error{
			Class:  Syntactic,
			Reason: syn.Message,
			Span:   spanFromPosition(syn.Pos),
			HasSpan: true,
			Cause:  err,
		}
	}

	var dup *module.DuplicateDeclError
	if errors.As(err, &dup) {
		return &Error{Class: Name, Reason: err.Error(), Cause: err}
	}

	var rErr resolve.Error
	if errors.As(err, &rErr) {
		return classifyResolveError(rErr, err)
	}

	var missingName *pq.MissingOutputNameError
	if errors.As(err, &missingName) {
		return &Error{Class: Internal, Code: "E0901", Reason: err.Error(), Cause: err}
	}
	var starNotAllowed *pq.StarNotAllowedError
	if errors.As(err, &starNotAllowed) {
		return &Error{Class: Type, Reason: err.Error(), Cause: err}
	}
	var dialectLacks *pq.DialectLacksFeatureError
	if errors.As(err, &dialectLacks) {
		return &Error{Class: Dialect, Reason: err.Error(), Cause: err}
	}

	var unsupportedOp *sqlgen.UnsupportedOperatorError
	if errors.As(err, &unsupportedOp) {
		return &Error{Class: Dialect, Reason: err.Error(), Cause: err}
	}
	var nonLiteralFormat *sqlgen.NonLiteralFormatError
	if errors.As(err, &nonLiteralFormat) {
		return &Error{Class: Type, Reason: err.Error(), Cause: err}
	}

	return &Error{Class: Internal, Code: "E0999", Reason: err.Error(), Cause: err}
}

// classifyResolveError maps §4.2's resolver error types onto §7's classes.
func classifyResolveError(rErr resolve.Error, orig error) *Error {
	base := &Error{Span: rErr.Span(), HasSpan: true, Reason: rErr.Error(), Cause: orig}

	switch rErr.(type) {
	case *resolve.NameNotFoundError, *resolve.AmbiguousNameError:
		base.Class = Name
	case *resolve.TypeMismatchError, *resolve.TooManyArgsError, *resolve.UnknownNamedArgError:
		base.Class = Type
	case *resolve.BadTransformError, *resolve.RelationInstanceUsedAsValueError,
		*resolve.MainNotFoundError, *resolve.VersionMismatchError:
		base.Class = Semantic
	default:
		base.Class = Internal
		base.Code = "E0900"
	}
	if _, ok := rErr.(*resolve.MainNotFoundError); ok {
		base.Code = "E0001"
	}
	return base
}
