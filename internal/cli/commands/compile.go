package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pqlc-dev/pqlc/internal/cache"
	"github.com/pqlc-dev/pqlc/internal/diagnostic"
	"github.com/pqlc-dev/pqlc/internal/resolve"
)

// NewCompileCommand compiles a single PQL file and prints its SQL.
func NewCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a PQL file to SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0])
		},
	}
	return cmd
}

func runCompile(cmd *cobra.Command, path string) error {
	cc, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cc.Close()

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	sql, diags := compileCached(cmd.Context(), cc, string(src))
	if len(diags) > 0 {
		return reportDiagnostics(cmd, diags, string(src), cc.opts.Display)
	}

	fmt.Fprintln(cmd.OutOrStdout(), sql)
	return nil
}

// compileCached checks the on-disk cache before running the pipeline,
// per §4.6's cache boundary — this sits entirely outside compiler.Compile,
// which never sees the cache. Diagnostics are non-nil only on an actual
// miss-then-recompile failure; a cache hit never needs them.
func compileCached(ctx context.Context, cc *commandContext, src string) (string, []*diagnostic.Error) {
	var key string
	if cc.cache != nil {
		key = cache.Key(src, cc.opts.Target.String(), resolve.CompilerVersion)
		if hit, ok, err := cc.cache.Get(ctx, key); err == nil && ok {
			return hit, nil
		}
	}

	q, diags := cc.compiler.Compile(src, cc.opts)
	if len(diags) > 0 {
		return "", diags
	}

	sql := cc.compiler.Render(q, cc.opts)
	if cc.cache != nil {
		_ = cc.cache.Put(ctx, key, sql)
	}
	return sql, nil
}

// reportDiagnostics prints all diagnostics to stderr and returns a
// generic error so cobra's exit code reflects the failure without
// double-printing the message (diagnostic.Render already formatted it).
func reportDiagnostics(cmd *cobra.Command, diags []*diagnostic.Error, src string, display diagnostic.Display) error {
	fmt.Fprint(cmd.ErrOrStderr(), diagnostic.Render(diags, src, display))
	return fmt.Errorf("%d compile error(s)", len(diags))
}
