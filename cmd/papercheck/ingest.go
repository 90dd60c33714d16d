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

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load literature records into the search corpus",
	Long: `Ingest reads one document per line ({"id", "title", "abstract", "authors",
"publication_date" (RFC 3339), "journal", "pmid", "doi", "source"}), stores it
for keyword search and indexes its embedding for semantic search. Invalid
records are skipped.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("file", "", "JSON lines corpus file")
	_ = ingestCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	docs, err := readDocuments(file)
	if err != nil {
		return err
	}

	return withApp(cmd, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
		n, err := app.Ingest.Ingest(ctx, docs)
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d records\n", n, len(docs))
		return err
	})
}

func readDocuments(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []domain.Document
	dec := json.NewDecoder(f)
	for {
		var doc domain.Document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, fmt.Errorf("decode record %d: %w", len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
}
