package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-checker/internal/bootstrap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored check as an xlsx workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("id", "", "check id")
	exportCmd.Flags().String("out", "", "output file (default paper-check-<id>.xlsx)")
	_ = exportCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetString("id")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = "paper-check-" + id + ".xlsx"
	}

	return withApp(cmd, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
		result, err := app.Queries.GetByID(ctx, id)
		if err != nil {
			return err
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := app.Exporter.Export(f, result); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		return nil
	})
}
