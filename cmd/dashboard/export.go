package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/campaign-dash/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered responders table as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		b, err := a.svc.ResponderCSV(selection())
		if err != nil {
			return err
		}
		if exportOutput == "-" {
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}
		if err := os.WriteFile(exportOutput, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOutput, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(b), exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", export.ResponderFileName, `output file, "-" for stdout`)
	addCampaignFlag(exportCmd)
}
