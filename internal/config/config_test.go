package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/pqlc-dev/pqlc/internal/config"
	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/diagnostic"
)

func TestDefaults(t *testing.T) {
	d := config.Defaults()
	require.Equal(t, "generic", d.Target)
	require.True(t, d.Signature)
	require.True(t, d.Format)
	require.Equal(t, "plain", d.Display)
	require.NotEmpty(t, d.CachePath)
}

func TestLoad_NoOverridesReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)
	require.Equal(t, config.Defaults(), *cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("target: postgres\nformat: false\n"), 0o644))

	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Target)
	require.False(t, cfg.Format)
	require.True(t, cfg.Signature) // untouched default survives
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("target: postgres\n"), 0o644))

	t.Setenv("PQLC_TARGET", "mysql")

	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)
	require.Equal(t, "mysql", cfg.Target)
}

func TestLoad_FlagOverridesEverything(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("target: postgres\n"), 0o644))
	t.Setenv("PQLC_TARGET", "mysql")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", "", "")
	require.NoError(t, flags.Set("target", "sqlite"))

	cfg, err := config.Load(dir, "", flags)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Target)
}

func TestLoad_UnchangedFlagDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("target: postgres\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", "", "")
	// Not calling flags.Set: f.Changed stays false.

	cfg, err := config.Load(dir, "", flags)
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Target)
}

func TestCompilerOptions_ValidTarget(t *testing.T) {
	cfg := config.Defaults()
	cfg.Target = "bigquery"
	opts, err := cfg.CompilerOptions()
	require.NoError(t, err)
	require.Equal(t, dialect.BigQuery, opts.Target)
}

func TestCompilerOptions_UnknownTargetErrors(t *testing.T) {
	cfg := config.Defaults()
	cfg.Target = "not_a_real_dialect"
	_, err := cfg.CompilerOptions()
	require.Error(t, err)
}

func TestCompilerOptions_DisplayModes(t *testing.T) {
	cfg := config.Defaults()
	cfg.Display = "ansi"
	opts, err := cfg.CompilerOptions()
	require.NoError(t, err)
	require.Equal(t, diagnostic.AnsiColor, opts.Display)
}

func TestCompilerOptions_UnknownDisplayErrors(t *testing.T) {
	cfg := config.Defaults()
	cfg.Display = "rainbow"
	_, err := cfg.CompilerOptions()
	require.Error(t, err)
}
