package diagnostic_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pqlc-dev/pqlc/internal/diagnostic"
	"github.com/pqlc-dev/pqlc/internal/token"
)

func TestRender_PlainIncludesClassCodeAndReason(t *testing.T) {
	errs := []*diagnostic.Error{
		{Class: diagnostic.Dialect, Code: "", Reason: "unsupported operator for target"},
	}
	out := diagnostic.Render(errs, "", diagnostic.Plain)
	require.Contains(t, out, "dialect error")
	require.Contains(t, out, "unsupported operator for target")
}

func TestRender_WithSpanShowsSourceLineAndCaret(t *testing.T) {
	src := "from t\n| filter bogus\n"
	errs := []*diagnostic.Error{
		{
			Class:   diagnostic.Name,
			Reason:  "name not found: bogus",
			Span:    token.Span{Start: 16, End: 21},
			HasSpan: true,
		},
	}
	out := diagnostic.Render(errs, src, diagnostic.Plain)
	require.Contains(t, out, "filter bogus")
	require.Contains(t, out, "^")
}

func TestRender_HintsArePrefixed(t *testing.T) {
	errs := []*diagnostic.Error{
		{Class: diagnostic.Type, Reason: "type mismatch", Hints: []string{"did you mean `count`?"}},
	}
	out := diagnostic.Render(errs, "", diagnostic.Plain)
	require.Contains(t, out, "hint: did you mean `count`?")
}

func TestRender_MultipleErrorsInOrder(t *testing.T) {
	errs := []*diagnostic.Error{
		{Class: diagnostic.Syntactic, Reason: "first"},
		{Class: diagnostic.Name, Reason: "second"},
	}
	out := diagnostic.Render(errs, "", diagnostic.Plain)
	firstIdx := indexOf(out, "first")
	secondIdx := indexOf(out, "second")
	require.True(t, firstIdx >= 0 && secondIdx > firstIdx)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
