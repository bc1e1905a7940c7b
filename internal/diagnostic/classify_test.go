package diagnostic_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pqlc-dev/pqlc/internal/diagnostic"
	"github.com/pqlc-dev/pqlc/internal/module"
	"github.com/pqlc-dev/pqlc/internal/parser"
	"github.com/pqlc-dev/pqlc/internal/resolve"
)

func TestClassify_SyntaxErrorGetsSyntacticClassAndSpan(t *testing.T) {
	_, err := parser.Parse(`from`, 0)
	require.Error(t, err)

	d := diagnostic.Classify(err)
	require.Equal(t, diagnostic.Syntactic, d.Class)
	require.True(t, d.HasSpan)
}

func TestClassify_MissingMainGetsStableCode(t *testing.T) {
	md, err := parser.Parse(`let x = 5`, 0)
	require.NoError(t, err)
	root, spans, err := module.Build(md)
	require.NoError(t, err)

	_, errs := resolve.Resolve(root, spans, resolve.Options{})
	require.NotEmpty(t, errs)

	d := diagnostic.Classify(errs[0])
	require.Equal(t, diagnostic.Semantic, d.Class)
	require.Equal(t, "E0001", d.Code)
}

func TestClassify_PassesThroughAlreadyClassifiedErrors(t *testing.T) {
	original := &diagnostic.Error{Class: diagnostic.Dialect, Reason: "already classified"}
	d := diagnostic.Classify(original)
	require.Same(t, original, d)
}

func TestClassify_UnknownErrorFallsBackToInternal(t *testing.T) {
	d := diagnostic.Classify(errors.New("something unexpected"))
	require.Equal(t, diagnostic.Internal, d.Class)
	require.Equal(t, "E0999", d.Code)
}

func TestClass_String(t *testing.T) {
	require.Equal(t, "syntax", diagnostic.Syntactic.String())
	require.Equal(t, "internal", diagnostic.Internal.String())
}
