package compiler

import (
	"strings"

	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/diagnostic"
)

// Options is the CLI-facing compile configuration (§6.3). Fields are
// orthogonal to the core pipeline and affect only dialect selection and
// the outermost string rendering.
type Options struct {
	Target    dialect.Kind
	Signature bool
	Format    bool
	Display   diagnostic.Display
}

// targetDirective renders opts.Target the way a `prql target:` directive
// spells it (§6.4), the form resolve.Options.Target is seeded with before
// an in-source directive gets a chance to override it.
func (o Options) targetDirective() string {
	return "sql." + o.Target.String()
}

// dialectFromTarget parses a resolved target string (either the CLI's own
// seed or an in-source `prql target:sql.<dialect>` override) back into a
// dialect.Kind for sqlgen.Emit. The "sql." prefix is optional so a bare
// dialect name works too.
func dialectFromTarget(target string) (dialect.Kind, bool) {
	return dialect.Parse(strings.TrimPrefix(target, "sql."))
}
