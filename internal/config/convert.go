package config

import (
	"fmt"

	"github.com/pqlc-dev/pqlc/internal/compiler"
	"github.com/pqlc-dev/pqlc/internal/dialect"
	"github.com/pqlc-dev/pqlc/internal/diagnostic"
)

// CompilerOptions converts a resolved Config into compiler.Options,
// validating the closed dialect/display enums (§6.3).
func (c Config) CompilerOptions() (compiler.Options, error) {
	target, ok := dialect.Parse(c.Target)
	if !ok {
		return compiler.Options{}, fmt.Errorf("config: unknown target dialect %q", c.Target)
	}

	var display diagnostic.Display
	switch c.Display {
	case "", "plain":
		display = diagnostic.Plain
	case "ansi", "ansi-color", "AnsiColor":
		display = diagnostic.AnsiColor
	default:
		return compiler.Options{}, fmt.Errorf("config: unknown display mode %q", c.Display)
	}

	return compiler.Options{
		Target:    target,
		Signature: c.Signature,
		Format:    c.Format,
		Display:   display,
	}, nil
}
