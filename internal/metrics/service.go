package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/AngelCh415/campaign-dash/internal/export"
	"github.com/AngelCh415/campaign-dash/internal/ingest"
	"github.com/AngelCh415/campaign-dash/internal/models"
)

// Tables is the part of ingest.Cache the service reads from.
type Tables interface {
	Tables() (*ingest.Snapshot, error)
}

type Service struct {
	tables Tables
	log    *slog.Logger

	// Export memo: the all-campaigns payload plus the last explicit
	// selection, both for generation expGen.
	mu      sync.Mutex
	expGen  uint64
	allCSV  []byte
	lastKey string
	lastCSV []byte
}

var ErrBadQuery = errors.New("bad query")

func NewService(tables Tables, log *slog.Logger) *Service {
	return &Service{tables: tables, log: log}
}

// ParseSelection reads the campaign selection from query values: repeated
// "campaign" params, and "all" which defaults to true when no campaign is
// given. An "all" value that is not a boolean is ErrBadQuery.
func ParseSelection(v url.Values) (models.Selection, error) {
	var offers []string
	for _, c := range v["campaign"] {
		if c = strings.TrimSpace(c); c != "" {
			offers = append(offers, c)
		}
	}
	all := len(v["campaign"]) == 0
	if s := v.Get("all"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return models.Selection{}, fmt.Errorf("%w: all=%q", ErrBadQuery, s)
		}
		all = b
	}
	return models.Selection{All: all, Offers: offers}, nil
}

// filtered applies sel to both tables of the current snapshot.
func (s *Service) filtered(sel models.Selection) (*ingest.Snapshot, models.ActivationTable, models.BroadcastTable, error) {
	snap, err := s.tables.Tables()
	if err != nil {
		return nil, models.ActivationTable{}, models.BroadcastTable{}, err
	}
	return snap, FilterActivations(snap.Activations, sel), FilterBroadcast(snap.Broadcast, sel), nil
}

func (s *Service) Campaigns() ([]string, error) {
	snap, err := s.tables.Tables()
	if err != nil {
		return nil, err
	}
	return DistinctOffers(snap.Activations), nil
}

func (s *Service) Dashboard(sel models.Selection) (models.Dashboard, error) {
	snap, act, bc, err := s.filtered(sel)
	if err != nil {
		return models.Dashboard{}, err
	}
	mm := CampaignMismatch(act, bc)
	if !mm.Empty() {
		s.log.Warn("campaign keys excluded from per-campaign join",
			slog.Any("activation_only", mm.ActivationOnly),
			slog.Any("broadcast_only", mm.BroadcastOnly))
	}
	return models.Dashboard{
		Period:      CampaignPeriod(snap.Activations),
		LastFetch:   snap.LoadedAt,
		Summary:     SummaryFigures(act, bc),
		ByDate:      ActivationsByDate(act),
		ByCampaign:  ActivationCountByCampaign(act, bc),
		Share:       ActivationShareByCampaign(act, bc),
		Mismatch:    mm,
		Campaigns:   DistinctOffers(snap.Activations),
		SelectedAll: sel.All,
	}, nil
}

func (s *Service) Summary(sel models.Selection) (models.Summary, error) {
	_, act, bc, err := s.filtered(sel)
	if err != nil {
		return models.Summary{}, err
	}
	return SummaryFigures(act, bc), nil
}

func (s *Service) ByDate(sel models.Selection) ([]models.DateCount, error) {
	_, act, _, err := s.filtered(sel)
	if err != nil {
		return nil, err
	}
	return ActivationsByDate(act), nil
}

func (s *Service) ByCampaign(sel models.Selection) ([]models.CampaignCount, error) {
	_, act, bc, err := s.filtered(sel)
	if err != nil {
		return nil, err
	}
	return ActivationCountByCampaign(act, bc), nil
}

func (s *Service) Share(sel models.Selection) ([]models.CampaignShare, error) {
	_, act, bc, err := s.filtered(sel)
	if err != nil {
		return nil, err
	}
	return ActivationShareByCampaign(act, bc), nil
}

func (s *Service) Mismatch(sel models.Selection) (models.KeyMismatch, error) {
	_, act, bc, err := s.filtered(sel)
	if err != nil {
		return models.KeyMismatch{}, err
	}
	return CampaignMismatch(act, bc), nil
}

// Responders returns a page of the filtered activation rows and the total
// row count.
func (s *Service) Responders(sel models.Selection, v url.Values) ([]models.Activation, int, error) {
	_, act, _, err := s.filtered(sel)
	if err != nil {
		return nil, 0, err
	}
	limit := atoiDef(v.Get("limit"), 100)
	offset := atoiDef(v.Get("offset"), 0)
	limit, offset = clampLimitOffset(limit, offset, len(act.Rows))
	return paginate(act.Rows, limit, offset), len(act.Rows), nil
}

// ResponderCSV returns the export payload. The all-campaigns payload and the
// most recent explicit selection are memoized per snapshot; callers get
// their own copy.
func (s *Service) ResponderCSV(sel models.Selection) ([]byte, error) {
	snap, act, _, err := s.filtered(sel)
	if err != nil {
		return nil, err
	}
	key := selectionKey(sel)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expGen != snap.Generation {
		s.allCSV, s.lastKey, s.lastCSV = nil, "", nil
		s.expGen = snap.Generation
	}
	if sel.All && s.allCSV != nil {
		return bytes.Clone(s.allCSV), nil
	}
	if !sel.All && s.lastCSV != nil && s.lastKey == key {
		return bytes.Clone(s.lastCSV), nil
	}
	b, err := export.ResponderCSV(act)
	if err != nil {
		return nil, err
	}
	if sel.All {
		s.allCSV = b
	} else {
		s.lastKey, s.lastCSV = key, b
	}
	return bytes.Clone(b), nil
}

func selectionKey(sel models.Selection) string {
	offers := append([]string(nil), sel.Offers...)
	sort.Strings(offers)
	return strings.Join(offers, "\x00")
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset > n {
		offset = n
	}
	return limit, offset
}
