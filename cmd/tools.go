package cmd

import (
	"io"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/teemow/dropboxmcp/internal/tools/dropbox_tools"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTools(cmd.OutOrStdout())
		},
	}
}

func printTools(w io.Writer) error {
	tools, err := registeredTools()
	if err != nil {
		return err
	}

	tbl := table.New("NAME", "READ-ONLY", "DESCRIPTION").WithWriter(w).WithPadding(2)
	for _, tool := range tools {
		readOnly := "no"
		if dropbox_tools.IsReadOnlyTool(tool.Name) {
			readOnly = "yes"
		}
		tbl.AddRow(tool.Name, readOnly, firstSentence(tool.Description))
	}
	tbl.Print()
	return nil
}

// firstSentence shortens a tool description to fit a table row.
func firstSentence(s string) string {
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '.' && s[i+1] == ' ' {
			return s[:i+1]
		}
	}
	return s
}
