package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/store"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <numbers>...",
	Aliases: []string{"rm"},
	Short:   "Delete documents by number and renumber the rest",
	Example: `  docqa delete 2
  docqa delete 1 3 --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	selection := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete document(s) %s", selection),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	eng, cleanup, err := buildEngine(cfg, engineOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := eng.Delete(context.Background(), selection)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range res.Deleted {
		fmt.Fprintf(out, "deleted %d. %s\n", r.Number, r.Name)
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(out, "not found: %s\n", store.FormatSelection(res.Missing))
	}
	return nil
}
