package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/pqlc-dev/pqlc/internal/diagnostic"
)

// NewReplCommand starts an interactive compile-and-print loop.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive compile-and-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd)
		},
	}
}

func runRepl(cmd *cobra.Command) error {
	cc, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cc.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pql> ",
		HistoryFile:     ".pqlc_history",
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("initializing repl: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintln(cmd.OutOrStdout(), "pqlc repl — type .help for commands, .quit to exit")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt("pql> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)

		if buf.Len() == 0 {
			switch line {
			case "":
				continue
			case ".quit", ".exit":
				return nil
			case ".help":
				fmt.Fprintln(cmd.OutOrStdout(), "Commands:\n  .help   show this message\n  .quit   exit the repl\n\nEnd a pipeline with a blank line to compile it.")
				continue
			}
		}

		if line != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
			rl.SetPrompt("...> ")
			continue
		}

		src := buf.String()
		buf.Reset()
		rl.SetPrompt("pql> ")
		if strings.TrimSpace(src) == "" {
			continue
		}

		q, diags := cc.compiler.Compile(src, cc.opts)
		if len(diags) > 0 {
			fmt.Fprint(cmd.ErrOrStderr(), diagnostic.Render(diags, src, cc.opts.Display))
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), cc.compiler.Render(q, cc.opts))
	}
}
