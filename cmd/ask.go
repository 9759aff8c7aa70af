package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/engine"
	"github.com/ziadkadry99/docqa/internal/store"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the uploaded documents",
	Long: `Answers a question from the selected documents. --docs takes document
numbers separated by spaces ("1 3"); without it every document
is searched.`,
	Example: `  docqa ask "How is data encrypted?"
  docqa ask --docs "1 3" "What changed in the retention policy?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("docs", "", "document numbers to ask (empty means all)")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	askCmd.Flags().Bool("no-sources", false, "do not print source excerpts")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	selection, _ := cmd.Flags().GetString("docs")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noSources, _ := cmd.Flags().GetBool("no-sources")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := buildEngine(cfg, engineOptions{withLLM: true})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	if jsonOutput {
		ans, err := eng.Ask(ctx, question, selection, nil)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	ans, err := eng.Ask(ctx, question, selection, func(delta string) {
		fmt.Fprint(out, delta)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out)

	printAskFooter(cmd.ErrOrStderr(), ans, noSources)
	return nil
}

func printAskFooter(w io.Writer, ans *engine.Answer, noSources bool) {
	if ans.FellBack {
		fmt.Fprintf(w, "\nNo documents matched the selection; searched all %d.\n", len(ans.Documents))
	} else if len(ans.Missing) > 0 {
		fmt.Fprintf(w, "\nIgnored unknown document numbers: %s\n", store.FormatSelection(ans.Missing))
	}

	if !noSources && len(ans.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, s := range ans.Sources {
			excerpt := strings.Join(strings.Fields(s.Text), " ")
			if len(excerpt) > 120 {
				excerpt = excerpt[:117] + "..."
			}
			fmt.Fprintf(w, "  [%s #%d %.2f] %s\n", s.Document, s.Position, s.Similarity, excerpt)
		}
	}

	fmt.Fprintf(w, "\n%s, %d in / %d out tokens, $%.4f, %s\n",
		ans.Model, ans.InputTokens, ans.OutputTokens, ans.CostUSD, ans.Duration.Round(10*time.Millisecond))
}
