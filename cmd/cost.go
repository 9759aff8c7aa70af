package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/config"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/llm"
	"github.com/ziadkadry99/docqa/internal/walker"
)

var costCmd = &cobra.Command{
	Use:   "cost <file|dir|glob>...",
	Short: "Estimate embedding cost of uploading files without indexing them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCost,
}

func init() {
	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := walker.Collect(args, walker.Config{})
	if err != nil {
		return err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	// A dry run needs no store or embedder.
	pipeline := indexer.NewPipeline(nil, nil, pipelineOptions(cfg, nil))
	est := pipeline.DryRun(paths)

	model := cfg.EmbeddingModel
	if model == "" {
		provider := cfg.EmbeddingProvider
		if provider == "" {
			provider = cfg.Provider
		}
		model = config.GetPreset(provider).EmbeddingModel
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cost estimate for %d file(s), embedding model %s\n\n", len(paths), model)
	for _, f := range est.Files {
		if f.Err != nil {
			fmt.Fprintf(out, "  %-40s  error: %s\n", f.Path, apperr.Message(f.Err))
			continue
		}
		fmt.Fprintf(out, "  %-40s  %4d chunks  %7d tokens  %s\n", f.Path, f.Chunks, f.Tokens, f.Encoding)
	}
	fmt.Fprintf(out, "\nTotal: %d chunks, ~%d tokens, ~$%.4f\n",
		est.TotalChunks, est.TotalTokens, llm.EstimateEmbeddingCost(model, est.TotalTokens))
	return nil
}
