package httpadapter

import (
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/census-market-etl/internal/domain"
)

type snapshotHandler func(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot)

// withSnapshot pins the current snapshot for the whole request and answers
// 503 until the first one exists.
func (s *Server) withSnapshot(h snapshotHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.source.Current()
		if snap == nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		h(w, r, snap)
	}
}

type statusResponse struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Counties    int                 `json:"counties"`
	MSAs        int                 `json:"msas"`
	Sources     []domain.LoadStatus `json:"sources"`
	Diagnostics domain.Diagnostics  `json:"diagnostics"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request, snap *domain.Snapshot) {
	sharedobs.WriteJSON(w, http.StatusOK, statusResponse{
		RunID:       snap.RunID,
		GeneratedAt: snap.GeneratedAt,
		Counties:    len(snap.Counties),
		MSAs:        len(snap.MSAs),
		Sources:     snap.Statuses,
		Diagnostics: snap.Diagnostics,
	})
}

func (s *Server) handleCounty(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot) {
	fips := r.PathValue("fips")
	c, ok := snap.Counties[fips]
	if !ok {
		writeError(w, http.StatusNotFound, "county "+fips+" not found")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) handleMSA(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot) {
	name := r.PathValue("name")
	m, ok := snap.MSAs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "msa "+name+" not found")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, m)
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request, snap *domain.Snapshot) {
	g, err := domain.ParseGranularity(r.PathValue("granularity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dim, err := domain.ParseMetricDimension(r.PathValue("dimension"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap.Metric(g, dim))
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.source.Trigger()
	s.logger.Info("refresh requested")
	sharedobs.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "refresh triggered"})
}
