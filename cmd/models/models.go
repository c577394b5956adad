// Package models implements the model inspection command.
package models

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkessler/fakesight-go/internal/conf"
	"github.com/mkessler/fakesight-go/internal/console"
	"github.com/mkessler/fakesight-go/internal/detector"
)

// Command creates the models command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show the resolved models, architectures and thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, err := detector.NewPredictorFromSettings(settings)
			if err != nil {
				return err
			}
			defer predictor.Close()

			fmt.Fprintln(cmd.OutOrStdout(), console.ModelsTable(predictor.Describe()))
			return nil
		},
	}
}
