package httpapi

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"PaperScout/internal/domain"
	"PaperScout/internal/ports"
	"PaperScout/internal/sse"
	"PaperScout/internal/usecase"
)

const (
	defaultListLimit = 200
	maxListLimit     = 1000
)

// Scraper runs scrapes in batch or streaming mode.
type Scraper interface {
	Scrape(ctx context.Context) (domain.RunSummary, error)
	Stream(ctx context.Context) iter.Seq2[usecase.Event, error]
}

// Server exposes the scraper and the stored papers over HTTP.
type Server struct {
	scraper   Scraper
	catalog   ports.PaperCatalog
	log       *slog.Logger
	heartbeat time.Duration
}

type errorResponse struct {
	Error string `json:"error"`
}

type papersResponse struct {
	Papers     []domain.StoredPaper     `json:"papers"`
	TypeCounts map[domain.MatchType]int `json:"type_counts"`
	Dates      []string                 `json:"dates"`
}

// NewServer wires the handlers; catalog may be nil when nothing is stored.
func NewServer(scraper Scraper, catalog ports.PaperCatalog, log *slog.Logger) *Server {
	return &Server{scraper: scraper, catalog: catalog, log: log, heartbeat: sse.HeartbeatInterval}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", s.handleScrape)
		r.Get("/scrape/stream", s.handleScrapeStream)
		r.Get("/papers", s.handlePapers)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	summary, err := s.scraper.Scrape(r.Context())
	if err != nil {
		s.log.Error("scrape request failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleScrapeStream(w http.ResponseWriter, r *http.Request) {
	stream, err := sse.NewWriter(w, s.heartbeat)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	defer stream.Close()

	for event, err := range s.scraper.Stream(r.Context()) {
		if err != nil {
			s.log.Error("scrape stream failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
			_ = stream.Send("error", map[string]string{"message": err.Error()})
			return
		}
		if err := stream.Send(string(event.Name), event.Data); err != nil {
			s.log.Warn("client left scrape stream", "error", err)
			return
		}
	}
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := papersResponse{Papers: []domain.StoredPaper{}, TypeCounts: domain.TypeCounts(nil), Dates: []string{}}
	if s.catalog == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	q := r.URL.Query()
	filter := domain.PaperFilter{
		MatchType:   strings.TrimSpace(q.Get("match_type")),
		ScrapedDate: strings.TrimSpace(q.Get("date")),
		Query:       strings.TrimSpace(q.Get("q")),
		Limit:       clampInt(q.Get("limit"), defaultListLimit, maxListLimit),
	}

	papers, err := s.catalog.ListPapers(ctx, filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	dates, err := s.catalog.ScrapedDates(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	if papers != nil {
		resp.Papers = papers
	}
	if dates != nil {
		resp.Dates = dates
	}
	resp.TypeCounts = domain.TypeCounts(papers)
	writeJSON(w, http.StatusOK, resp)
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
