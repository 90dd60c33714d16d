package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-checker/internal/bootstrap"
	"github.com/kirillkom/paper-checker/internal/core/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one abstract",
	Long: `Check reads an abstract from a text file (--file), from a PDF (--pdf) or from
standard input, runs the full pipeline and writes the stored result as JSON.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("file", "", "text file holding the abstract ('-' or empty for stdin)")
	checkCmd.Flags().String("pdf", "", "PDF whose abstract section is checked")
	checkCmd.Flags().String("title", "", "title of the source paper")
	checkCmd.Flags().String("pmid", "", "PubMed id of the source paper")
	checkCmd.Flags().String("doi", "", "DOI of the source paper")
	checkCmd.Flags().String("out", "", "write the JSON result here instead of stdout")
	checkCmd.Flags().Bool("progress", false, "print progress to stderr")
	checkCmd.MarkFlagsMutuallyExclusive("file", "pdf")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	file, _ := flags.GetString("file")
	pdfPath, _ := flags.GetString("pdf")
	title, _ := flags.GetString("title")
	pmid, _ := flags.GetString("pmid")
	doi, _ := flags.GetString("doi")
	out, _ := flags.GetString("out")
	showProgress, _ := flags.GetBool("progress")

	meta := domain.SourceMetadata{Title: title, PMID: pmid, DOI: doi}

	return withApp(cmd, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
		var abstract string
		var err error
		if pdfPath != "" {
			abstract, err = readPDFAbstract(ctx, app, pdfPath)
			meta.Source = "file:" + filepath.Base(pdfPath)
		} else {
			abstract, err = readText(file)
			if file != "" && file != "-" {
				meta.Source = "file:" + filepath.Base(file)
			}
		}
		if err != nil {
			return err
		}

		callbacks := domain.CheckCallbacks{}
		if showProgress {
			callbacks.Progress = func(step string, fraction float64) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%3.0f%%] %s\n", fraction*100, step)
			}
		}
		result, err := app.Checker.CheckAbstract(ctx, abstract, meta, callbacks)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), out, result)
	})
}

func readPDFAbstract(ctx context.Context, app *bootstrap.App, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return app.Extractor.ExtractAbstract(ctx, filepath.Base(path), f)
}

func readText(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read abstract: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// writeJSON writes v to path, or to fallback when path is empty.
func writeJSON(fallback io.Writer, path string, v any) error {
	w := fallback
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
