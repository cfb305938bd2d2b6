package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/scamscope/scamscope/internal/config"
	"github.com/scamscope/scamscope/internal/observability"
	"github.com/scamscope/scamscope/internal/pipeline"
	"github.com/scamscope/scamscope/internal/privacy"
	"github.com/scamscope/scamscope/internal/ratelimit"
	"github.com/scamscope/scamscope/internal/report"
)

type Server struct {
	cfg      config.Config
	pipeline *pipeline.Service
	reports  report.Store
	upgrader websocket.Upgrader
}

func New(cfg config.Config, svc *pipeline.Service, reports report.Store) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: svc,
		reports:  reports,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other sites cannot drive submissions (and
				// burn a visitor's quota) through their browser.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/analyze", s.handleAnalyze)
	r.Get("/v1/analyze/ws", s.handleAnalyzeWS)
	r.Get("/v1/reports/recent", s.handleRecentReports)
	r.Get("/v1/reports/by-contact", s.handleReportsByContact)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"reputation_lookup": s.cfg.SafeBrowsingAPIKey != "",
		"verdict_provider":  s.verdictProvider(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type analyzeRequest struct {
	Text    string `json:"text"`
	Mode    string `json:"mode"`
	Contact string `json:"contact,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := s.pipeline.Analyze(r.Context(), s.toPipelineRequest(r, req))
	if err != nil {
		s.respondAnalyzeError(w, res, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// toPipelineRequest is the hashing boundary: the raw client address and user
// agent are folded into the identifier digest here and never passed further.
func (s *Server) toPipelineRequest(r *http.Request, req analyzeRequest) pipeline.Request {
	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = "message"
	}
	return pipeline.Request{
		Text:           req.Text,
		Mode:           mode,
		Contact:        strings.TrimSpace(req.Contact),
		IdentifierHash: ratelimit.Identify(s.cfg.IdentifierSecret, clientIP(r), r.UserAgent()),
	}
}

func (s *Server) respondAnalyzeError(w http.ResponseWriter, res pipeline.Result, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyText):
		respondError(w, http.StatusBadRequest, "empty_text", "text is required")
	case errors.Is(err, pipeline.ErrRateLimited):
		seconds := int(math.Ceil(res.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		respondError(w, http.StatusTooManyRequests, "rate_limited", "submission quota exceeded")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) handleRecentReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := s.reports.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reports": items})
}

// handleReportsByContact cross-references earlier reports for a contact. The
// raw contact from the query is masked before it touches the store, the same
// residue the pipeline persists.
func (s *Server) handleReportsByContact(w http.ResponseWriter, r *http.Request) {
	contact := strings.TrimSpace(r.URL.Query().Get("contact"))
	if contact == "" {
		respondError(w, http.StatusBadRequest, "missing_contact", "query parameter contact is required")
		return
	}

	items, err := s.reports.ByContact(r.Context(), privacy.Mask(contact))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reports": items})
}

func (s *Server) verdictProvider() string {
	if s.cfg.OpenAIAPIKey != "" {
		return "openai"
	}
	return "heuristic"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
