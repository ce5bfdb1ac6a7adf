package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

var ErrMissingColumn = errors.New("missing column")

const (
	colTelephone      = "telephone_number"
	colOffer          = "offer"
	colOfferStart     = "offer_start_date"
	colOfferEnd       = "offer_end_date"
	colTimeID         = "time_id"
	colDiscounted     = "discounted_price"
	colMainBalance    = "main_balance_charge"
	colOpNumber       = "opnumber"
	colFinalCharge    = "final_charge"
	colMSISDN         = "msisdn"
	colChannel        = "channel"
	colControl        = "control"
	campaignKeySep    = "_"
	treatmentGroupVal = 0
)

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"01/02/2006",
}

// LoadActivations reads the activations table. Unparseable timestamps and
// charge values load as null; no row is dropped.
func LoadActivations(ctx context.Context, src Source) (models.ActivationTable, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return models.ActivationTable{}, err
	}
	return ReadActivations(r)
}

func ReadActivations(r io.Reader) (models.ActivationTable, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return models.ActivationTable{}, fmt.Errorf("activations: %w", err)
	}
	idx, err := columnIndex(header, colTelephone, colOffer, colOfferStart, colOfferEnd, colTimeID)
	if err != nil {
		return models.ActivationTable{}, fmt.Errorf("activations: %w", err)
	}
	opt := optionalIndex(header, colDiscounted, colMainBalance, colOpNumber, colFinalCharge)

	rows := make([]models.Activation, 0, len(records))
	for _, rec := range records {
		a := models.Activation{
			TelephoneNumber:   strings.TrimSpace(rec[idx[colTelephone]]),
			Offer:             strings.TrimSpace(rec[idx[colOffer]]),
			OfferStartDate:    parseTime(rec[idx[colOfferStart]]),
			OfferEndDate:      parseTime(rec[idx[colOfferEnd]]),
			TimeID:            parseTime(rec[idx[colTimeID]]),
			DiscountedPrice:   numericAt(rec, opt[colDiscounted]),
			MainBalanceCharge: numericAt(rec, opt[colMainBalance]),
			OpNumber:          numericAt(rec, opt[colOpNumber]),
			FinalCharge:       numericAt(rec, opt[colFinalCharge]),
			Raw:               rec,
		}
		if a.TimeID != nil {
			a.Day = a.TimeID.Format("2006-01-02")
		}
		rows = append(rows, a)
	}
	return models.ActivationTable{Header: header, Rows: rows}, nil
}

// LoadBroadcast reads the broadcast base, keeps the treatment group only and
// projects it to (telephone_number, offer_channel).
func LoadBroadcast(ctx context.Context, src Source) (models.BroadcastTable, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return models.BroadcastTable{}, err
	}
	return ReadBroadcast(r)
}

func ReadBroadcast(r io.Reader) (models.BroadcastTable, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return models.BroadcastTable{}, fmt.Errorf("broadcast: %w", err)
	}
	idx, err := columnIndex(header, colMSISDN, colOffer, colChannel, colControl)
	if err != nil {
		return models.BroadcastTable{}, fmt.Errorf("broadcast: %w", err)
	}
	rows := make([]models.Broadcast, 0, len(records))
	for _, rec := range records {
		ctl := parseFloat(rec[idx[colControl]])
		if ctl == nil || *ctl != treatmentGroupVal {
			continue
		}
		rows = append(rows, models.Broadcast{
			TelephoneNumber: strings.TrimSpace(rec[idx[colMSISDN]]),
			Offer:           CampaignKey(rec[idx[colOffer]], rec[idx[colChannel]]),
		})
	}
	return models.BroadcastTable{Rows: rows}, nil
}

// CampaignKey builds the broadcast campaign key "<offer>_<channel>".
func CampaignKey(offer, channel string) string {
	return strings.TrimSpace(offer) + campaignKeySep + strings.TrimSpace(channel)
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return header, records, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := optionalIndex(header, required...)
	for _, c := range required {
		if idx[c] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

// optionalIndex maps each name to its header position, -1 when absent.
func optionalIndex(header []string, names ...string) map[string]int {
	idx := make(map[string]int, len(names))
	for _, n := range names {
		idx[n] = -1
		for i, h := range header {
			if h == n {
				idx[n] = i
				break
			}
		}
	}
	return idx
}

func numericAt(rec []string, i int) *float64 {
	if i < 0 {
		return nil
	}
	return parseFloat(rec[i])
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return &t
		}
	}
	return nil
}
