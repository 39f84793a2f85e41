// internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getcito/ai-monitor/internal/models"
	"github.com/getcito/ai-monitor/internal/store"
	"github.com/getcito/ai-monitor/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// Server exposes the thin REST surface over the analytics pipeline. Handlers
// do no computation themselves; they parse, delegate, and render.
type Server struct {
	store     *store.Store
	analytics services.AnalyticsService
	export    services.ExportService
	inngest   inngestgo.Client
}

func NewServer(st *store.Store, analytics services.AnalyticsService, export services.ExportService, inngest inngestgo.Client) *Server {
	return &Server{
		store:     st,
		analytics: analytics,
		export:    export,
		inngest:   inngest,
	}
}

// Router mounts the API routes plus the Inngest handler.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.Handle("/api/inngest", s.inngest.Serve())

	router.HandleFunc("/api/brands", s.handleCreateBrand).Methods("POST")
	router.HandleFunc("/api/brands", s.handleListBrands).Methods("GET")
	router.HandleFunc("/api/brands/{brandID}/competitors", s.handleCreateCompetitor).Methods("POST")
	router.HandleFunc("/api/brands/{brandID}/competitors", s.handleListCompetitors).Methods("GET")
	router.HandleFunc("/api/brands/{brandID}/queries", s.handleCreateQuery).Methods("POST")
	router.HandleFunc("/api/brands/{brandID}/queries", s.handleListQueries).Methods("GET")

	router.HandleFunc("/api/brands/{brandID}/sessions", s.handleTriggerSession).Methods("POST")
	router.HandleFunc("/api/brands/{brandID}/sessions/{sessionID}", s.handleSessionStatus).Methods("GET")
	router.HandleFunc("/api/brands/{brandID}/analytics", s.handleBrandAnalytics).Methods("GET")
	router.HandleFunc("/api/brands/{brandID}/competitors/analytics", s.handleCompetitorAnalytics).Methods("GET")
	router.HandleFunc("/api/brands/{brandID}/share-of-voice", s.handleShareOfVoice).Methods("GET")
	router.HandleFunc("/api/brands/{brandID}/citations.csv", s.handleCitationsCSV).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	return router
}

type createBrandRequest struct {
	Name    string   `json:"name"`
	Domain  string   `json:"domain,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

func (s *Server) handleCreateBrand(w http.ResponseWriter, r *http.Request) {
	var req createBrandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("brand name is required"))
		return
	}

	brand := &models.Brand{
		Name:     req.Name,
		Domain:   req.Domain,
		Aliases:  req.Aliases,
		IsActive: true,
	}
	if err := s.store.CreateBrand(r.Context(), brand); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, brand)
}

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.store.ListActiveBrands(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, brands)
}

type createCompetitorRequest struct {
	Name    string   `json:"name"`
	Domain  *string  `json:"domain,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

func (s *Server) handleCreateCompetitor(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	var req createCompetitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("competitor name is required"))
		return
	}

	comp := &models.Competitor{
		BrandID: brandID,
		Name:    req.Name,
		Domain:  req.Domain,
		Aliases: req.Aliases,
	}
	if err := s.store.CreateCompetitor(r.Context(), comp); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, comp)
}

func (s *Server) handleListCompetitors(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	competitors, err := s.store.ListCompetitors(r.Context(), brandID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, competitors)
}

type createQueryRequest struct {
	Text     string `json:"text"`
	Position int    `json:"position,omitempty"`
}

func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	var req createQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("query text is required"))
		return
	}

	q := &models.BrandQuery{
		BrandID:  brandID,
		Text:     req.Text,
		Position: req.Position,
	}
	if err := s.store.CreateBrandQuery(r.Context(), q); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	queries, err := s.store.ListBrandQueries(r.Context(), brandID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, queries)
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(mux.Vars(r)["sessionID"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid session ID"))
		return
	}

	session, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session %s not found", sessionID))
		return
	}
	if session.BrandID != brandID {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("session %s not found", sessionID))
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

type triggerSessionRequest struct {
	Queries []string `json:"queries,omitempty"`
}

func (s *Server) handleTriggerSession(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}

	var req triggerSessionRequest
	if r.Body != nil {
		// An empty body means "run the brand's stored query set".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	evt := inngestgo.Event{
		Name: "monitor/session.requested",
		Data: map[string]interface{}{
			"brand_id":     brandID.String(),
			"queries":      req.Queries,
			"triggered_by": "api",
		},
	}
	eventID, err := s.inngest.Send(r.Context(), evt)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("failed to queue session: %w", err))
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":   "queued",
		"event_id": fmt.Sprintf("%v", eventID),
	})
}

func (s *Server) handleBrandAnalytics(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	scope, ok := s.scope(w, r)
	if !ok {
		return
	}

	snapshot, err := s.analytics.BrandSnapshot(r.Context(), brandID, scope)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleCompetitorAnalytics(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	scope, ok := s.scope(w, r)
	if !ok {
		return
	}

	snapshot, err := s.analytics.CompetitorSnapshot(r.Context(), brandID, scope)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleShareOfVoice(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	scope, ok := s.scope(w, r)
	if !ok {
		return
	}

	sov, err := s.analytics.ShareOfVoice(r.Context(), brandID, scope)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sov)
}

func (s *Server) handleCitationsCSV(w http.ResponseWriter, r *http.Request) {
	brandID, ok := s.brandID(w, r)
	if !ok {
		return
	}
	scope, ok := s.scope(w, r)
	if !ok {
		return
	}

	citations, err := s.analytics.Citations(r.Context(), brandID, scope)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="citations.csv"`)
	if err := s.export.WriteCitationsCSV(w, citations); err != nil {
		logrus.WithError(err).Error("Failed to stream citations CSV")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) brandID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["brandID"]
	brandID, err := uuid.Parse(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid brand ID %q", raw))
		return uuid.Nil, false
	}
	return brandID, true
}

func (s *Server) scope(w http.ResponseWriter, r *http.Request) (services.Scope, bool) {
	switch raw := r.URL.Query().Get("scope"); raw {
	case "", string(services.ScopeLatest):
		return services.ScopeLatest, true
	case string(services.ScopeLifetime):
		return services.ScopeLifetime, true
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown scope %q", raw))
		return "", false
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Error("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
