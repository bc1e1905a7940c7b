// Package config resolves pqlc's CLI configuration (§6.3, §6.7) from
// defaults, a project config file, environment variables, and flags, in
// that precedence order.
package config

// ConfigFileName is the project config file pqlc looks for (§6.7).
const ConfigFileName = "pqlc.yaml"

// ConfigFileNameAlt is the alternate extension accepted alongside
// ConfigFileName.
const ConfigFileNameAlt = "pqlc.yml"

// EnvPrefix is the environment-variable prefix config values load under,
// e.g. PQLC_TARGET overrides the "target" key (§6.7).
const EnvPrefix = "PQLC_"

// Config mirrors compiler.Options plus the one CLI-only setting (the
// cache path) that isn't part of a single compile call.
type Config struct {
	Target    string `koanf:"target"`
	Signature bool   `koanf:"signature"`
	Format    bool   `koanf:"format"`
	Display   string `koanf:"display"`
	CachePath string `koanf:"cache_path"`
}

// Defaults returns the built-in defaults loaded before any config
// file/env/flag layer (§6.7's precedence chain's base).
func Defaults() Config {
	return Config{
		Target:    "generic",
		Signature: true,
		Format:    true,
		Display:   "plain",
		CachePath: ".pqlc/cache.db",
	}
}
