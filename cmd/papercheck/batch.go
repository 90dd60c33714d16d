package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-checker/internal/bootstrap"
	"github.com/kirillkom/paper-checker/internal/core/domain"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Check many abstracts from a JSON lines file",
	Long: `Batch reads one {"abstract": ..., "metadata": {...}} object per line and checks
them in order. Failed items are logged and skipped. With --enqueue the items
are published to the worker queue instead of being checked locally.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("file", "", "JSON lines file with check items")
	batchCmd.Flags().String("out", "", "write results as JSON lines here instead of stdout")
	batchCmd.Flags().Bool("enqueue", false, "publish jobs to NATS and print job ids")
	_ = batchCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	out, _ := cmd.Flags().GetString("out")
	enqueue, _ := cmd.Flags().GetBool("enqueue")

	items, err := readCheckItems(file)
	if err != nil {
		return err
	}

	return withApp(cmd, bootstrap.Options{WithQueue: enqueue}, func(ctx context.Context, app *bootstrap.App) error {
		if enqueue {
			ids, err := app.Jobs.Submit(ctx, items)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out, map[string][]string{"job_ids": ids})
		}

		results, err := app.Checker.CheckAbstractsBatch(ctx, items, func(step string, fraction float64) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%3.0f%%] %s\n", fraction*100, step)
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "checked %d of %d abstracts\n", len(results), len(items))
		return nil
	})
}

func readCheckItems(path string) ([]domain.CheckItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []domain.CheckItem
	dec := json.NewDecoder(f)
	for {
		var item domain.CheckItem
		if err := dec.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode item %d: %w", len(items)+1, err)
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s holds no items", path)
	}
	return items, nil
}
