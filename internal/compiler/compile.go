// Package compiler orchestrates the five-stage pipeline (§4.6): parse →
// module.Build → resolve.Resolve → rq.Lower → pq.Anchor → sqlgen.Emit.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pqlc-dev/pqlc/internal/diagnostic"
	"github.com/pqlc-dev/pqlc/internal/module"
	"github.com/pqlc-dev/pqlc/internal/parser"
	"github.com/pqlc-dev/pqlc/internal/pq"
	"github.com/pqlc-dev/pqlc/internal/resolve"
	"github.com/pqlc-dev/pqlc/internal/rq"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
	"github.com/pqlc-dev/pqlc/internal/sqlgen"

	"github.com/pqlc-dev/pqlc/internal/dialect"
)

// Compiler holds the one logger threaded through compilation (never a
// global, mirroring the teacher's Engine). Compiler carries no other
// state: every Compile call builds its own root module, resolver, and
// anchor context (§5).
type Compiler struct {
	logger *slog.Logger
}

// New returns a Compiler that logs through logger, or a default
// slog.Logger when nil.
func New(logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{logger: logger}
}

// Compile runs the full pipeline over one source string. It short-circuits
// on the first fatal error of each phase; only the resolver phase ever
// accumulates multiple errors (§7 propagation policy).
func (c *Compiler) Compile(src string, opts Options) (*sqlast.Query, []*diagnostic.Error) {
	reqID := uuid.NewString()
	log := c.logger.With("request_id", reqID)
	log.Debug("compiling", "target", opts.Target.String(), "bytes", len(src))

	md, err := parser.Parse(src, 0)
	if err != nil {
		log.Debug("parse failed", "error", err)
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	root, spans, err := module.Build(md)
	if err != nil {
		log.Debug("module build failed", "error", err)
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	res, errs := resolve.Resolve(root, spans, resolve.Options{Target: opts.targetDirective()})
	if len(errs) > 0 {
		log.Debug("resolve failed", "error_count", len(errs))
		diags := make([]*diagnostic.Error, len(errs))
		for i, e := range errs {
			diags[i] = diagnostic.Classify(e)
		}
		return nil, diags
	}

	target, ok := dialectFromTarget(res.Options.Target)
	if !ok {
		return nil, []*diagnostic.Error{{
			Class:  diagnostic.Dialect,
			Reason: fmt.Sprintf("unknown target dialect %q", res.Options.Target),
		}}
	}

	rel, err := rq.Lower(res.Root, res.Main, rq.Def{Target: res.Options.Target, Version: res.Options.Version})
	if err != nil {
		log.Debug("lowering failed", "error", err)
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	anchored, err := pq.Anchor(rel)
	if err != nil {
		log.Debug("anchoring failed", "error", err)
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	q, err := sqlgen.Emit(anchored, dialect.Get(target))
	if err != nil {
		log.Debug("emit failed", "error", err)
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	log.Debug("compiled", "target", target.String())
	return q, nil
}

// Render applies §6.3's outermost string-rendering options to a compiled
// query: a compiler-identifying comment when Signature is set, and
// pretty- vs. compact-printing per Format (internal/sqlast's printer is
// the "external collaborator" §6.2 hands the *sqlast.Query to).
func (c *Compiler) Render(q *sqlast.Query, opts Options) string {
	sql := sqlast.Print(q, opts.Format)
	if !opts.Signature {
		return sql
	}
	return fmt.Sprintf("-- generated by pqlc (target: %s)\n%s", opts.Target.String(), sql)
}
