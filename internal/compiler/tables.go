package compiler

import (
	"github.com/pqlc-dev/pqlc/internal/diagnostic"
	"github.com/pqlc-dev/pqlc/internal/module"
	"github.com/pqlc-dev/pqlc/internal/parser"
	"github.com/pqlc-dev/pqlc/internal/resolve"
	"github.com/pqlc-dev/pqlc/internal/rq"
)

// TableInfo describes one table reachable from a query's main relation,
// in the toposorted order rq.Lower already produces (§4.4.4's
// compile-on-first-reference policy naturally yields a topological
// order, so this package does no additional sorting of its own).
type TableInfo struct {
	Name     string // declared name, or "" for an anonymous derived relation
	External bool   // true for a physical table never declared in module tree
}

// Tables runs the pipeline only as far as rq.Lower and reports the
// table-dependency plan, stopping short of pq.Anchor/sqlgen.Emit since
// neither stage changes which tables are reachable or their order.
func (c *Compiler) Tables(src string, opts Options) ([]TableInfo, []*diagnostic.Error) {
	md, err := parser.Parse(src, 0)
	if err != nil {
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	root, spans, err := module.Build(md)
	if err != nil {
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	res, errs := resolve.Resolve(root, spans, resolve.Options{Target: opts.targetDirective()})
	if len(errs) > 0 {
		diags := make([]*diagnostic.Error, len(errs))
		for i, e := range errs {
			diags[i] = diagnostic.Classify(e)
		}
		return nil, diags
	}

	rel, err := rq.Lower(res.Root, res.Main, rq.Def{Target: res.Options.Target, Version: res.Options.Version})
	if err != nil {
		return nil, []*diagnostic.Error{diagnostic.Classify(err)}
	}

	tables := make([]TableInfo, len(rel.Tables))
	for i, td := range rel.Tables {
		info := TableInfo{}
		if td.Name != nil {
			info.Name = *td.Name
		}
		if _, ok := td.Relation.Kind.(rq.ExternRefR); ok {
			info.External = true
		}
		tables[i] = info
	}
	return tables, nil
}
