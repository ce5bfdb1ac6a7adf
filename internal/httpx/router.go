package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/campaign-dash/internal/export"
	"github.com/AngelCh415/campaign-dash/internal/ingest"
	"github.com/AngelCh415/campaign-dash/internal/metrics"
	"github.com/AngelCh415/campaign-dash/internal/models"
	"github.com/AngelCh415/campaign-dash/internal/utils"
)

func NewRouter(log *slog.Logger, cache *ingest.Cache, mSvc *metrics.Service, m *utils.Metrics, g prometheus.Gatherer) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(m.Instrument)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !cache.Loaded() {
			http.Error(w, "tables not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})

	if g != nil {
		mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}

	mux.Get("/campaigns", func(w http.ResponseWriter, r *http.Request) {
		list, err := mSvc.Campaigns()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, list)
	})

	mux.Route("/dashboard", func(dr chi.Router) {
		dr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			sel, ok := selection(w, r)
			if !ok {
				return
			}
			d, err := mSvc.Dashboard(sel)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, d)
		})
		dr.Get("/summary", func(w http.ResponseWriter, r *http.Request) {
			sel, ok := selection(w, r)
			if !ok {
				return
			}
			s, err := mSvc.Summary(sel)
			respond(w, s, err)
		})
		dr.Get("/by-date", func(w http.ResponseWriter, r *http.Request) {
			sel, ok := selection(w, r)
			if !ok {
				return
			}
			rows, err := mSvc.ByDate(sel)
			respond(w, rows, err)
		})
		dr.Get("/by-campaign", func(w http.ResponseWriter, r *http.Request) {
			sel, ok := selection(w, r)
			if !ok {
				return
			}
			rows, err := mSvc.ByCampaign(sel)
			respond(w, rows, err)
		})
		dr.Get("/share", func(w http.ResponseWriter, r *http.Request) {
			sel, ok := selection(w, r)
			if !ok {
				return
			}
			rows, err := mSvc.Share(sel)
			respond(w, rows, err)
		})
		dr.Get("/mismatch", func(w http.ResponseWriter, r *http.Request) {
			sel, ok := selection(w, r)
			if !ok {
				return
			}
			mm, err := mSvc.Mismatch(sel)
			respond(w, mm, err)
		})
	})

	mux.Get("/responders", func(w http.ResponseWriter, r *http.Request) {
		sel, ok := selection(w, r)
		if !ok {
			return
		}
		rows, total, err := mSvc.Responders(sel, r.URL.Query())
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("X-Total-Count", strconv.Itoa(total))
		writeJSON(w, rows)
	})

	mux.Get("/responders.csv", func(w http.ResponseWriter, r *http.Request) {
		sel, ok := selection(w, r)
		if !ok {
			return
		}
		b, err := mSvc.ResponderCSV(sel)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.ResponderFileName+`"`)
		w.Write(b)
	})

	mux.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		snap, err := cache.Reload(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{
			"loaded_at":   snap.LoadedAt,
			"generation":  snap.Generation,
			"activations": len(snap.Activations.Rows),
			"broadcast":   len(snap.Broadcast.Rows),
		})
	})

	mux.Get("/refresh/history", func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || n <= 0 {
			n = 20
		}
		recs, err := cache.FetchLog().Recent(r.Context(), n)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, recs)
	})

	return mux
}

// selection parses the campaign query, answering 400 when it is malformed.
func selection(w http.ResponseWriter, r *http.Request) (models.Selection, bool) {
	sel, err := metrics.ParseSelection(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return models.Selection{}, false
	}
	return sel, true
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ingest.ErrNotLoaded) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
