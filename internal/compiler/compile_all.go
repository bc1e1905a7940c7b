package compiler

import (
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pqlc-dev/pqlc/internal/diagnostic"
	"github.com/pqlc-dev/pqlc/internal/sqlast"
)

// Result is one file's compilation outcome.
type Result struct {
	Path        string
	Query       *sqlast.Query
	Diagnostics []*diagnostic.Error
}

// CompileAll fans every `.pql` file under dir out across an errgroup, one
// goroutine per query, each running its own Compile call with its own
// root module, id generators, and anchor context (§5 — no shared mutable
// state beyond the read-only operator table). Results are returned sorted
// by path so callers see deterministic order despite the concurrent fan-out.
func (c *Compiler) CompileAll(dir string, opts Options) ([]Result, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".pql" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(paths))
	g := new(errgroup.Group)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			q, diags := c.Compile(string(src), opts)
			results[i] = Result{Path: path, Query: q, Diagnostics: diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}
