package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the dropboxmcp application
var rootCmd = &cobra.Command{
	Use:   "dropboxmcp",
	Short: "MCP server for managing files in a Dropbox account",
	Long: `dropboxmcp exposes a Dropbox account to AI assistants through the Model
Context Protocol: create, append, list, move, rename, delete, download,
restore, search, share and upload files.

Authentication uses the access token in DROPBOX_ACCESS_TOKEN.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "dropboxmcp version %s\n" .Version}}`)

	// Without a subcommand the server is started.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newToolsCmd())
}
