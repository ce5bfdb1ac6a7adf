package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

const testActivations = `telephone_number,offer,offer_start_date,offer_end_date,time_id,final_charge
1,A,2022-02-01,2022-02-28,2022-02-01,1
2,A,2022-02-01,2022-02-28,2022-02-01,N/A
3,B,2022-02-01,2022-02-28,2022-02-02,2
`

const testBroadcast = `msisdn,offer,channel,control
1,A,sms,0
`

func resetFlags() {
	configPath = ""
	noColor = false
	campaigns = nil
	noCampaign = false
	exportOutput = "responders.csv"
	for _, c := range []*cobra.Command{rootCmd, serveCmd, reportCmd, exportCmd} {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

// writeConfig lays out both source files and a config pointing at them.
// Broadcast keys are "<offer>_<channel>", so activation offers "A" and "B"
// only match when the activations file uses the same key form.
func writeConfig(t *testing.T, activations string) string {
	t.Helper()
	dir := t.TempDir()
	ap := filepath.Join(dir, "202202.csv")
	bp := filepath.Join(dir, "202202_bulk.csv")
	require.NoError(t, os.WriteFile(ap, []byte(activations), 0o600))
	require.NoError(t, os.WriteFile(bp, []byte(testBroadcast), 0o600))
	cfg := filepath.Join(dir, "dashboard.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("activations_source: "+ap+"\nbroadcast_source: "+bp+"\nlog_level: error\n"), 0o600))
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"ACTIVATIONS_SOURCE", "BROADCAST_SOURCE", "FETCH_LOG_DB", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	resetFlags()
	t.Cleanup(resetFlags)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReportCmd(t *testing.T) {
	cfg := writeConfig(t, testActivations)
	out, err := run(t, "report", "--config", cfg, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Broadcasted:   1")
	assert.Contains(t, out, "Responders:    3")
	assert.Contains(t, out, "Response Rate: 300.00%")
	assert.Contains(t, out, "2022-02-01 - 2022-02-28")
	assert.Contains(t, out, "activations only: A")
	assert.Contains(t, out, "broadcast only:   A_sms")
}

func TestReportCmdSelection(t *testing.T) {
	cfg := writeConfig(t, testActivations)
	out, err := run(t, "report", "--config", cfg, "--no-color", "--campaign", "B")
	require.NoError(t, err)
	assert.Contains(t, out, "Broadcasted:   0")
	assert.Contains(t, out, "Responders:    1")
	assert.Contains(t, out, "Response Rate: 0.00%")
}

func TestReportCmdNoCampaigns(t *testing.T) {
	cfg := writeConfig(t, testActivations)
	out, err := run(t, "report", "--config", cfg, "--no-color", "--no-campaigns")
	require.NoError(t, err)
	assert.Contains(t, out, "Broadcasted:   0")
	assert.Contains(t, out, "Responders:    0")
	assert.Contains(t, out, "Response Rate: 0.00%")
}

func TestExportCmdNoCampaigns(t *testing.T) {
	cfg := writeConfig(t, testActivations)
	out, err := run(t, "export", "--config", cfg, "-o", "-", "--no-campaigns")
	require.NoError(t, err)
	assert.Equal(t, "telephone_number,offer,offer_start_date,offer_end_date,time_id,final_charge\n", out)
}

func TestNoCampaignsExcludesCampaign(t *testing.T) {
	cfg := writeConfig(t, testActivations)
	_, err := run(t, "report", "--config", cfg, "--no-campaigns", "--campaign", "A")
	require.Error(t, err)
}

func TestExportCmd(t *testing.T) {
	cfg := writeConfig(t, testActivations)
	dst := filepath.Join(t.TempDir(), "responders.csv")
	_, err := run(t, "export", "--config", cfg, "-o", dst, "--campaign", "A")
	require.NoError(t, err)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "telephone_number,offer,offer_start_date,offer_end_date,time_id,final_charge\n"+
		"1,A,2022-02-01,2022-02-28,2022-02-01,1\n"+
		"2,A,2022-02-01,2022-02-28,2022-02-01,N/A\n", string(b))
}

func TestExportCmdStdout(t *testing.T) {
	cfg := writeConfig(t, testActivations)
	out, err := run(t, "export", "--config", cfg, "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, testActivations, out)
}

func TestMissingSourceIsFatal(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dashboard.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("activations_source: "+filepath.Join(dir, "none.csv")+"\nbroadcast_source: "+filepath.Join(dir, "none_bulk.csv")+"\nlog_level: error\n"), 0o600))
	_, err := run(t, "report", "--config", cfg)
	require.Error(t, err)
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, models.Dashboard{Mismatch: models.KeyMismatch{}})
	assert.Contains(t, buf.String(), "Summary")
	assert.NotContains(t, buf.String(), "without a match")
}

func TestWriteReportGroupsThousands(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, models.Dashboard{
		Summary:    models.Summary{Broadcasted: 1234567, Responders: 12345, Rate: 1},
		ByDate:     []models.DateCount{{Day: "2022-02-01", Activations: 1000}},
		ByCampaign: []models.CampaignCount{{Offer: "A_sms", Activations: 999, Broadcasted: 10000}},
	})
	out := buf.String()
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "2022-02-01  1,000")
	assert.Contains(t, out, "activations=999 broadcasted=10,000")
}
