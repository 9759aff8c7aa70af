package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/docqa/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document listing, upload, search and question answering tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, cleanup, err := buildEngine(cfg, engineOptions{withLLM: true})
		if err != nil {
			return err
		}
		defer cleanup()

		docs, err := eng.Documents()
		if err != nil {
			return err
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "docqa MCP server started on stdio (store=%s, documents=%d)\n", cfg.Store.Dir, len(docs))
		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No documents uploaded yet. Run `docqa upload` first or use the upload_document tool.")
		}

		return mcpserver.NewServer(eng).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
