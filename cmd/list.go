package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List uploaded documents with their numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		docs, err := st.List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		}
		if len(docs) == 0 {
			fmt.Fprintln(out, "No documents uploaded. Run `docqa upload <file>` first.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tSIZE\tUPLOADED")
		for _, d := range docs {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", d.Number, d.Name, d.Size, d.ModTime.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}
