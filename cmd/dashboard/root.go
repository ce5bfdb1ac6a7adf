package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configPath string
	noColor    bool
	campaigns  []string
	noCampaign bool
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Campaign response dashboard",
	Long: `dashboard loads the activations file and the broadcast base, and serves
response metrics per campaign: broadcast and responder counts, response
rate, activations per day and per campaign, and the responders export.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}

func addCampaignFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&campaigns, "campaign", nil, "restrict to a campaign (repeatable); default all campaigns")
	cmd.Flags().BoolVar(&noCampaign, "no-campaigns", false, "select no campaign at all; every figure comes out empty")
	cmd.MarkFlagsMutuallyExclusive("campaign", "no-campaigns")
}
