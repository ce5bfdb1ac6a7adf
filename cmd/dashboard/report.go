package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the dashboard figures for the selected campaigns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		d, err := a.svc.Dashboard(selection())
		if err != nil {
			return err
		}
		writeReport(cmd.OutOrStdout(), d)
		return nil
	},
}

func init() { addCampaignFlag(reportCmd) }

func writeReport(w io.Writer, d models.Dashboard) {
	head := color.New(color.FgRed, color.Bold)
	label := color.New(color.Bold)

	head.Fprintln(w, "Campaign Period")
	fmt.Fprintf(w, "  %s - %s\n", d.Period.Start, d.Period.End)
	fmt.Fprintf(w, "  last data fetch: %s\n\n", d.LastFetch.Format("2006-01-02 15:04"))

	head.Fprintln(w, "Summary")
	label.Fprint(w, "  Broadcasted:   ")
	fmt.Fprintf(w, "%s\n", humanize.Comma(int64(d.Summary.Broadcasted)))
	label.Fprint(w, "  Responders:    ")
	fmt.Fprintf(w, "%s\n", humanize.Comma(int64(d.Summary.Responders)))
	label.Fprint(w, "  Response Rate: ")
	fmt.Fprintf(w, "%.2f%%\n\n", d.Summary.Rate)

	head.Fprintln(w, "Activations by Date")
	for _, c := range d.ByDate {
		fmt.Fprintf(w, "  %s  %s\n", c.Day, humanize.Comma(int64(c.Activations)))
	}
	fmt.Fprintln(w)

	head.Fprintln(w, "Campaign Details")
	rates := make(map[string]models.CampaignShare, len(d.Share))
	for _, s := range d.Share {
		rates[s.Offer] = s
	}
	for _, c := range d.ByCampaign {
		fmt.Fprintf(w, "  %-30s activations=%s broadcasted=%s rate=%.2f%%\n",
			c.Offer, humanize.Comma(int64(c.Activations)), humanize.Comma(int64(c.Broadcasted)), rates[c.Offer].Percent)
	}
	if !d.Mismatch.Empty() {
		fmt.Fprintln(w)
		color.New(color.FgYellow).Fprintln(w, "Campaign keys without a match (excluded above)")
		for _, k := range d.Mismatch.ActivationOnly {
			fmt.Fprintf(w, "  activations only: %s\n", k)
		}
		for _, k := range d.Mismatch.BroadcastOnly {
			fmt.Fprintf(w, "  broadcast only:   %s\n", k)
		}
	}
}
