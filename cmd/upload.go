package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/apperr"
	"github.com/ziadkadry99/docqa/internal/indexer"
	"github.com/ziadkadry99/docqa/internal/progress"
	"github.com/ziadkadry99/docqa/internal/walker"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file|dir|glob>...",
	Short: "Index text documents into the store",
	Long: `Loads, splits and embeds each file and stores its index as
{n}_{name}.gob.gz. Directories are walked for *.txt files and glob
patterns such as "notes/**/*.txt" are expanded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().String("name", "", "display name (single file only)")
	uploadCmd.Flags().StringSlice("include", nil, "glob patterns to include when walking directories")
	uploadCmd.Flags().StringSlice("exclude", nil, "glob patterns to exclude when walking directories")
	uploadCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name, _ := cmd.Flags().GetString("name")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := walker.Collect(args, walker.Config{Include: include, Exclude: exclude})
	if err != nil {
		return err
	}
	if name != "" && len(files) != 1 {
		return fmt.Errorf("%w: --name needs exactly one file, got %d", apperr.ErrInvalidInput, len(files))
	}

	opts := engineOptions{}
	if !jsonOutput {
		opts.reporter = progress.NewReporter()
	}
	eng, cleanup, err := buildEngine(cfg, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	var batch *indexer.BatchResult
	if name != "" {
		batch = &indexer.BatchResult{}
		f, err := os.Open(files[0].Path)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrIO, err)
		}
		res, err := eng.Upload(ctx, f, name)
		f.Close()
		if err != nil {
			batch.Errors = append(batch.Errors, &indexer.FileError{Path: files[0].Path, Err: err})
		} else {
			batch.Results = append(batch.Results, *res)
		}
	} else {
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Path
		}
		var onProgress func(done, total int, path string)
		if !jsonOutput && len(paths) > 1 {
			onProgress = func(done, total int, path string) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", done, total, path)
			}
		}
		batch = eng.UploadFiles(ctx, paths, onProgress)
	}

	if jsonOutput {
		type jsonError struct {
			Path  string `json:"path"`
			Error string `json:"error"`
		}
		payload := struct {
			Uploaded []indexer.Result `json:"uploaded"`
			Errors   []jsonError      `json:"errors,omitempty"`
		}{Uploaded: batch.Results}
		for _, e := range batch.Errors {
			je := jsonError{Error: apperr.Message(e)}
			if fe, ok := e.(*indexer.FileError); ok {
				je.Path = fe.Path
				je.Error = apperr.Message(fe.Err)
			}
			payload.Errors = append(payload.Errors, je)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	} else {
		for _, r := range batch.Results {
			fmt.Fprintf(out, "%d. %s  (%d chunks, %s, %s)\n",
				r.Record.Number, r.Record.Name, r.Chunks, r.Encoding, r.Record.FileName)
		}
		for _, e := range batch.Errors {
			if fe, ok := e.(*indexer.FileError); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %s\n", fe.Path, apperr.Message(fe.Err))
				continue
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", apperr.Message(e))
		}
	}

	switch {
	case len(batch.Errors) == 0:
		return nil
	case len(batch.Results) == 0 && len(batch.Errors) == 1:
		return batch.Errors[0]
	default:
		return fmt.Errorf("%d of %d uploads failed", len(batch.Errors), len(batch.Errors)+len(batch.Results))
	}
}
