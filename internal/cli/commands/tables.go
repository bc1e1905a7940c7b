package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pqlc-dev/pqlc/internal/diagnostic"
)

// NewTablesCommand prints the toposorted table-dependency plan for a
// PQL file, without carrying it all the way through to SQL.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <file>",
		Short: "Print the table-dependency plan for a PQL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(cmd, args[0])
		},
	}
}

func runTables(cmd *cobra.Command, path string) error {
	cc, err := newCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cc.Close()

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	tables, diags := cc.compiler.Tables(string(src), cc.opts)
	if len(diags) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), diagnostic.Render(diags, string(src), cc.opts.Display))
		return fmt.Errorf("%d error(s)", len(diags))
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "kind", "table"})

	for i, t := range tables {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("<anon %d>", i)
		}
		kind := "derived"
		if t.External {
			kind = "external"
		}
		tw.AppendRow(table.Row{i, kind, name})
	}
	tw.Render()
	return nil
}
