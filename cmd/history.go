package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/activity"
	"github.com/ziadkadry99/docqa/internal/apperr"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent uploads, deletions and questions",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("action", "", "filter by action: upload, delete, ask")
	historyCmd.Flags().String("document", "", "filter by document file name")
	historyCmd.Flags().Duration("since", 0, "only entries newer than this (e.g. 24h)")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.Flags().Duration("prune", 0, "delete entries older than this instead of listing")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	action, _ := cmd.Flags().GetString("action")
	document, _ := cmd.Flags().GetString("document")
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")
	prune, _ := cmd.Flags().GetDuration("prune")
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

	acts := eng.Activity()
	if acts == nil {
		return fmt.Errorf("%w: activity log is disabled (activity.db_path is empty)", apperr.ErrInvalidConfig)
	}
	out := cmd.OutOrStdout()

	if prune > 0 {
		n, err := acts.DeleteBefore(ctx, time.Now().Add(-prune))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d entries.\n", n)
		return nil
	}

	filter := activity.QueryFilter{
		Action:   activity.Action(action),
		Document: document,
		Limit:    limit,
	}
	if since > 0 {
		t := time.Now().Add(-since)
		filter.Since = &t
	}
	entries, err := eng.History(ctx, filter)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No activity recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tSTATUS\tDOCUMENTS\tDETAIL")
	for _, e := range entries {
		detail := e.Detail
		if e.Action == activity.ActionAsk && e.Question != "" {
			detail = e.Question
		}
		if len(detail) > 60 {
			detail = detail[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Status, len(e.Documents), detail)
	}
	return w.Flush()
}
