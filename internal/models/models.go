package models

import "time"

// Activation is one responder event from the activations file.
type Activation struct {
	TelephoneNumber   string     `json:"telephone_number"`
	Offer             string     `json:"offer"`
	OfferStartDate    *time.Time `json:"offer_start_date"`
	OfferEndDate      *time.Time `json:"offer_end_date"`
	TimeID            *time.Time `json:"time_id"`
	Day               string     `json:"day"` // YYYY-MM-DD, empty when TimeID is null
	DiscountedPrice   *float64   `json:"discounted_price"`
	MainBalanceCharge *float64   `json:"main_balance_charge"`
	OpNumber          *float64   `json:"opnumber"`
	FinalCharge       *float64   `json:"final_charge"`

	// Raw holds the original cells in header order.
	Raw []string `json:"-"`
}

type ActivationTable struct {
	Header []string
	Rows   []Activation
}

// Broadcast is a treatment-group row of the broadcast base. Offer is the
// synthesized "<offer>_<channel>" campaign key.
type Broadcast struct {
	TelephoneNumber string `json:"telephone_number"`
	Offer           string `json:"offer"`
}

type BroadcastTable struct {
	Rows []Broadcast
}

// Selection is the campaign filter state. The zero value selects nothing.
type Selection struct {
	All    bool
	Offers []string
}

func AllCampaigns() Selection { return Selection{All: true} }

func Campaigns(offers ...string) Selection { return Selection{Offers: offers} }

type Summary struct {
	Broadcasted int     `json:"broadcasted"`
	Responders  int     `json:"responders"`
	Rate        float64 `json:"response_rate"`
}

type DateCount struct {
	Day         string `json:"day"`
	Activations int    `json:"activations"`
}

type CampaignCount struct {
	Offer       string `json:"offer"`
	Activations int    `json:"activations"`
	Broadcasted int    `json:"broadcasted"`
}

type CampaignShare struct {
	Offer   string  `json:"offer"`
	Rate    float64 `json:"response_rate"`
	Percent float64 `json:"response_rate_pct"`
}

// KeyMismatch lists campaign keys dropped by the per-campaign inner join.
type KeyMismatch struct {
	ActivationOnly []string `json:"activation_only"`
	BroadcastOnly  []string `json:"broadcast_only"`
}

func (k KeyMismatch) Empty() bool { return len(k.ActivationOnly) == 0 && len(k.BroadcastOnly) == 0 }

type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Dashboard struct {
	Period      Period          `json:"campaign_period"`
	LastFetch   time.Time       `json:"last_fetch"`
	Summary     Summary         `json:"summary"`
	ByDate      []DateCount     `json:"activations_by_date"`
	ByCampaign  []CampaignCount `json:"activations_by_campaign"`
	Share       []CampaignShare `json:"response_rate_by_campaign"`
	Mismatch    KeyMismatch     `json:"campaign_key_mismatch"`
	Campaigns   []string        `json:"campaigns"`
	SelectedAll bool            `json:"all_campaigns"`
}

// FetchRecord is one reload attempt of the source tables.
type FetchRecord struct {
	ID            string    `json:"id"`
	At            time.Time `json:"at"`
	OK            bool      `json:"ok"`
	Error         string    `json:"error,omitempty"`
	Activations   int       `json:"activations"`
	Broadcast     int       `json:"broadcast"`
	DurationMilli int64     `json:"duration_ms"`
}
