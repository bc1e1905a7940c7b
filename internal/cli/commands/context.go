package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pqlc-dev/pqlc/internal/cache"
	"github.com/pqlc-dev/pqlc/internal/compiler"
	"github.com/pqlc-dev/pqlc/internal/config"
)

// commandContext holds the dependencies a PQL-compiling command needs,
// built fresh from cobra's flag set for each invocation (mirroring the
// teacher's CommandContext, minus the parts — engine, renderer modes —
// that don't apply here).
type commandContext struct {
	cfg      *config.Config
	compiler *compiler.Compiler
	opts     compiler.Options
	cache    *cache.Cache // nil when the cache could not be opened; callers degrade to always-compile
}

func newCommandContext(cmd *cobra.Command) (*commandContext, error) {
	cfg, err := config.Load(".", configFileFlag(cmd), cmd.Root().PersistentFlags())
	if err != nil {
		return nil, err
	}

	opts, err := cfg.CompilerOptions()
	if err != nil {
		return nil, err
	}

	cc := &commandContext{
		cfg:      cfg,
		compiler: compiler.New(slog.Default()),
		opts:     opts,
	}

	if cfg.CachePath != "" && cfg.CachePath != ":memory:" {
		if dir := filepath.Dir(cfg.CachePath); dir != "." && dir != "" {
			_ = os.MkdirAll(dir, 0o750)
		}
	}
	if cfg.CachePath != "" {
		c, err := cache.Open(cfg.CachePath, slog.Default())
		if err == nil {
			cc.cache = c
		}
	}

	return cc, nil
}

func (cc *commandContext) Close() {
	if cc.cache != nil {
		_ = cc.cache.Close()
	}
}

func configFileFlag(cmd *cobra.Command) string {
	f := cmd.Root().PersistentFlags().Lookup("config")
	if f == nil {
		return ""
	}
	return f.Value.String()
}
