package adminserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/your-org/epc-sgw/internal/gwcontext"
)

type bearerView struct {
	EBI           uint8  `json:"ebi"`
	State         string `json:"state"`
	SGWS1uTEID    uint32 `json:"sgw_s1u_teid"`
	ENodeBS1uTEID uint32 `json:"enb_s1u_teid"`
}

type sessionView struct {
	IMSI            string       `json:"imsi"`
	S11LocalTEID    uint32       `json:"s11_local_teid"`
	APN             string       `json:"apn"`
	DefaultBearerID uint8        `json:"default_bearer_id"`
	Bearers         []bearerView `json:"bearers"`
}

func toSessionView(ctx *gwcontext.SubscriberCtx) sessionView {
	bearers := ctx.AllBearers()
	views := make([]bearerView, 0, len(bearers))
	for _, b := range bearers {
		views = append(views, bearerView{
			EBI:           b.EBI,
			State:         b.State().String(),
			SGWS1uTEID:    b.SGWS1uTEID,
			ENodeBS1uTEID: b.ENodeBS1uTEID,
		})
	}
	return sessionView{
		IMSI:            ctx.IMSI,
		S11LocalTEID:    ctx.S11LocalTEID,
		APN:             ctx.APN(),
		DefaultBearerID: ctx.DefaultBearerID(),
		Bearers:         views,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.All()
	views := make([]sessionView, 0, len(sessions))
	for _, ctx := range sessions {
		views = append(views, toSessionView(ctx))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSessionsByIMSI(w http.ResponseWriter, r *http.Request) {
	imsi := chi.URLParam(r, "imsi")
	var views []sessionView
	for _, ctx := range s.store.All() {
		if ctx.IMSI == imsi {
			views = append(views, toSessionView(ctx))
		}
	}
	if len(views) == 0 {
		respondError(w, http.StatusNotFound, "no sessions for imsi")
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Stats())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
