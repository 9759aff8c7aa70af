package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantically search the uploaded documents",
	Long:  `Searches the selected document indices for the chunks closest to the query, without calling the language model.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("docs", "", "document numbers to search (empty means all)")
	searchCmd.Flags().Int("limit", 5, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchHit struct {
	Document   string  `json:"document"`
	Position   int     `json:"position"`
	Similarity float32 `json:"similarity"`
	Content    string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

	selection, _ := cmd.Flags().GetString("docs")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := buildEngine(cfg, engineOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	results, sel, err := eng.Search(ctx, query, selection, limit)
	if err != nil {
		return err
	}

	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			Document:   r.Entry.Source,
			Position:   r.Entry.Position,
			Similarity: r.Similarity,
			Content:    r.Entry.Content,
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if sel.FellBack {
		fmt.Fprintln(cmd.ErrOrStderr(), "No documents matched the selection; searched all documents.")
	}
	if len(hits) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(out, "%d. %s #%d (similarity %.3f)\n", i+1, h.Document, h.Position, h.Similarity)
		content := h.Content
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		for _, line := range strings.Split(content, "\n") {
			fmt.Fprintf(out, "   %s\n", line)
		}
		fmt.Fprintln(out)
	}
	return nil
}
