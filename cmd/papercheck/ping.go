package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kirillkom/paper-checker/internal/bootstrap"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Report whether every backing service is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
			report := app.Checker.TestConnection(ctx)
			if err := writeJSON(cmd.OutOrStdout(), "", report); err != nil {
				return err
			}
			if !report.OK {
				return errors.New("one or more services are unreachable")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
