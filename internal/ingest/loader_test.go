package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const activationsCSV = `telephone_number,offer,offer_start_date,offer_end_date,time_id,discounted_price,main_balance_charge,opnumber,final_charge
994501111111,A,2022-02-01,2022-02-28,2022-02-01,1.5,2,10,3.5
994502222222,A,2022-02-01,2022-02-28,2022-02-01 13:45:00,N/A,2,11,
994503333333,B,2022-02-01,2022-02-28,2022-02-02,0.5,abc,12,1
`

const broadcastCSV = `msisdn,offer,channel,control
994501111111,A,sms,0
994502222222,A,sms,0
994504444444,A,sms,1
994503333333,B,ussd,0
994505555555,B,ussd,0
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestReadActivationsCoercesNumerics(t *testing.T) {
	tbl, err := ReadActivations(strings.NewReader(activationsCSV))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 3, "coercion must not drop rows")

	first := tbl.Rows[0]
	assert.Equal(t, "994501111111", first.TelephoneNumber)
	assert.Equal(t, "A", first.Offer)
	require.NotNil(t, first.DiscountedPrice)
	assert.InDelta(t, 1.5, *first.DiscountedPrice, 1e-9)
	assert.Equal(t, "2022-02-01", first.Day)

	second := tbl.Rows[1]
	assert.Nil(t, second.DiscountedPrice, "N/A loads as null")
	assert.Nil(t, second.FinalCharge, "empty loads as null")
	require.NotNil(t, second.TimeID)
	assert.Equal(t, 13, second.TimeID.Hour())
	assert.Equal(t, "2022-02-01", second.Day)

	third := tbl.Rows[2]
	assert.Nil(t, third.MainBalanceCharge)
	require.NotNil(t, third.OpNumber)
	assert.InDelta(t, 12, *third.OpNumber, 1e-9)
	assert.Equal(t, "2022-02-02", third.Day)

	assert.Equal(t, "telephone_number", tbl.Header[0])
	assert.Equal(t, []string{"994503333333", "B", "2022-02-01", "2022-02-28", "2022-02-02", "0.5", "abc", "12", "1"}, third.Raw)
}

func TestReadActivationsBadTimestampIsNull(t *testing.T) {
	in := "telephone_number,offer,offer_start_date,offer_end_date,time_id\n1,A,2022-02-01,2022-02-28,not-a-date\n"
	tbl, err := ReadActivations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Nil(t, tbl.Rows[0].TimeID)
	assert.Empty(t, tbl.Rows[0].Day)
	assert.Nil(t, tbl.Rows[0].FinalCharge, "absent charge column loads as null")
}

func TestReadActivationsMissingColumn(t *testing.T) {
	_, err := ReadActivations(strings.NewReader("telephone_number,offer\n1,A\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadActivationsRaggedRowFails(t *testing.T) {
	in := "telephone_number,offer,offer_start_date,offer_end_date,time_id\n1,A,2022-02-01\n"
	_, err := ReadActivations(strings.NewReader(in))
	require.Error(t, err)
}

func TestReadBroadcastTreatmentOnly(t *testing.T) {
	tbl, err := ReadBroadcast(strings.NewReader(broadcastCSV))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 4)
	for _, r := range tbl.Rows {
		assert.NotEqual(t, "994504444444", r.TelephoneNumber, "control group row kept")
	}
	assert.Equal(t, "994501111111", tbl.Rows[0].TelephoneNumber)
	assert.Equal(t, "A_sms", tbl.Rows[0].Offer)
	assert.Equal(t, "B_ussd", tbl.Rows[3].Offer)
}

func TestCampaignKey(t *testing.T) {
	assert.Equal(t, "Bonus 5GB_sms", CampaignKey(" Bonus 5GB", "sms "))
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadActivations(context.Background(), Source{Location: filepath.Join(t.TempDir(), "202202.csv")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFromPath(t *testing.T) {
	p := writeFile(t, "bulk.csv", broadcastCSV)
	tbl, err := LoadBroadcast(context.Background(), Source{Location: p})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 4)
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(activationsCSV))
	}))
	defer srv.Close()

	tbl, err := LoadActivations(context.Background(), Source{Location: srv.URL, Client: NewHTTPClient(2 * time.Second)})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 3)
}

func TestLoadFromURLHandles404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := LoadBroadcast(context.Background(), Source{Location: srv.URL, Client: NewHTTPClient(2 * time.Second)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
