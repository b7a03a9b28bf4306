package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/scorecard-cli/internal/access"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/report"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
	"github.com/sells-group/scorecard-cli/internal/store"
)

// roleHeader names the viewer role on API requests. Requests without it are
// treated as unknown and denied.
const roleHeader = "X-Scorecard-Role"

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scorecard HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var gen *report.Generator
		if cfg.Anthropic.Key != "" {
			gen, err = newReportGenerator()
			if err != nil {
				return err
			}
		}

		api := &apiServer{st: st, gen: gen, maxBusinesses: cfg.Portfolio.MaxBusinesses}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type apiServer struct {
	st            store.Store
	gen           *report.Generator
	maxBusinesses int
}

func (s *apiServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", roleHeader},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/businesses", s.handleListBusinesses)
	r.Get("/businesses/{id}/trend", s.handleTrend)
	r.Post("/scorecards", s.handleSubmitScorecard)
	r.Get("/portfolio", s.handlePortfolio)
	r.Post("/reports", s.handleReport)
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestRole parses the viewer role header and denies anything unknown.
func requestRole(w http.ResponseWriter, r *http.Request) (access.Role, bool) {
	role := access.ParseRole(r.Header.Get(roleHeader))
	if !access.CanSeeScores(role) {
		writeError(w, http.StatusForbidden, "unknown or missing role")
		return access.RoleUnknown, false
	}
	return role, true
}

func (s *apiServer) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestRole(w, r); !ok {
		return
	}
	businesses, err := s.st.ListBusinesses(r.Context())
	if err != nil {
		serverError(w, "list businesses", err)
		return
	}
	if businesses == nil {
		businesses = []model.Business{}
	}
	writeJSON(w, http.StatusOK, businesses)
}

// scorecardRequest is the POST /scorecards body.
type scorecardRequest struct {
	Business      string               `json:"business"`
	Month         string               `json:"month"` // YYYY-MM
	Submission    scorecard.Submission `json:"submission"`
	Risks         string               `json:"risks,omitempty"`
	Opportunities string               `json:"opportunities,omitempty"`
}

// scorecardResponse carries the computed result back. Raw figures are never
// echoed; a consultant submitting data still cannot read monetary figures
// back out of the API.
type scorecardResponse struct {
	ID          string                 `json:"id"`
	BusinessID  string                 `json:"business_id"`
	Business    string                 `json:"business"`
	ReportMonth string                 `json:"report_month"`
	Result      scorecard.ScoreResult  `json:"result"`
	Trend       *scorecard.TrendResult `json:"trend,omitempty"`
}

func (s *apiServer) handleSubmitScorecard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestRole(w, r); !ok {
		return
	}

	var req scorecardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Business == "" {
		writeError(w, http.StatusBadRequest, "business is required")
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	sub := req.Submission.Normalize()
	result, err := scorecard.ScoreSubmission(scorecard.FullCatalog(), sub)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	biz, err := s.st.UpsertBusiness(r.Context(), model.Business{Name: req.Business})
	if err != nil {
		serverError(w, "upsert business", err)
		return
	}
	rec, err := s.st.SaveScorecard(r.Context(), model.ScoreRecord{
		BusinessID:    biz.ID,
		BusinessName:  biz.Name,
		ReportMonth:   month,
		Submission:    sub,
		Result:        *result,
		Risks:         req.Risks,
		Opportunities: req.Opportunities,
	})
	if err != nil {
		serverError(w, "save scorecard", err)
		return
	}

	trend, err := s.trendFor(r.Context(), *rec)
	if err != nil {
		serverError(w, "compute trend", err)
		return
	}

	writeJSON(w, http.StatusCreated, scorecardResponse{
		ID:          rec.ID,
		BusinessID:  rec.BusinessID,
		Business:    rec.BusinessName,
		ReportMonth: rec.ReportMonth.Format(monthLayout),
		Result:      rec.Result,
		Trend:       trend,
	})
}

// trendFor derives the month-over-month trend for a record from stored
// history.
func (s *apiServer) trendFor(ctx context.Context, rec model.ScoreRecord) (*scorecard.TrendResult, error) {
	history, err := s.st.History(ctx, rec.BusinessID, rec.ReportMonth, 1)
	if err != nil {
		return nil, err
	}
	previous, err := scorecard.PreviousScore(model.HistoryPoints(history))
	if err != nil {
		return nil, err
	}
	return scorecard.ComputeTrend(rec.Result.TotalScore, previous), nil
}

func (s *apiServer) handleTrend(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestRole(w, r); !ok {
		return
	}

	businessID := chi.URLParam(r, "id")
	nextMonth := time.Now().UTC().AddDate(0, 1, 0)
	records, err := s.st.History(r.Context(), businessID, nextMonth, 12)
	if err != nil {
		serverError(w, "load history", err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "no scorecards for business")
		return
	}

	points := model.HistoryPoints(records)
	previous, err := scorecard.PreviousScore(points[1:])
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"business_id": businessID,
		"business":    records[0].BusinessName,
		"month":       records[0].ReportMonth.Format(monthLayout),
		"score":       records[0].Result.TotalScore,
		"rag_status":  records[0].Result.RAGStatus,
		"trend":       scorecard.ComputeTrend(records[0].Result.TotalScore, previous),
		"history":     points,
	})
}

func (s *apiServer) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestRole(w, r); !ok {
		return
	}
	agg, err := buildPortfolio(r.Context(), s.st, s.maxBusinesses)
	if err != nil {
		serverError(w, "aggregate portfolio", err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// reportRequest is the POST /reports body. An empty business_id requests a
// portfolio report.
type reportRequest struct {
	BusinessID string `json:"business_id,omitempty"`
}

func (s *apiServer) handleReport(w http.ResponseWriter, r *http.Request) {
	role, ok := requestRole(w, r)
	if !ok {
		return
	}
	if s.gen == nil {
		writeError(w, http.StatusNotImplemented, "report generation is not configured")
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var analysis *report.Analysis
	if req.BusinessID != "" {
		nextMonth := time.Now().UTC().AddDate(0, 1, 0)
		records, err := s.st.History(r.Context(), req.BusinessID, nextMonth, 2)
		if err != nil {
			serverError(w, "load history", err)
			return
		}
		if len(records) == 0 {
			writeError(w, http.StatusNotFound, "no scorecards for business")
			return
		}
		points := model.HistoryPoints(records)
		previous, err := scorecard.PreviousScore(points[1:])
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		trend := scorecard.ComputeTrend(records[0].Result.TotalScore, previous)

		analysis, err = s.gen.BusinessReport(r.Context(), records[0], trend, role)
		if err != nil {
			serverError(w, "generate report", err)
			return
		}
	} else {
		agg, err := buildPortfolio(r.Context(), s.st, s.maxBusinesses)
		if err != nil {
			serverError(w, "aggregate portfolio", err)
			return
		}
		analysis, err = s.gen.PortfolioReport(r.Context(), *agg, role)
		if err != nil {
			serverError(w, "generate report", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, analysis)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, action string, err error) {
	zap.L().Error("api: "+action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, action+" failed")
}
