package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/litscan/litscan/internal/usecase"
)

// Server bundles the producer's handlers with their services.
type Server struct {
	Submit   usecase.SubmitService
	Results  usecase.ResultsService
	validate *validator.Validate
}

// NewServer constructs the producer HTTP surface.
func NewServer(submit usecase.SubmitService, results usecase.ResultsService) *Server {
	return &Server{Submit: submit, Results: results, validate: validator.New()}
}

type submitJobRequest struct {
	ID          string  `json:"id" validate:"required"`
	URSTaxID    string  `json:"urs_taxid"`
	Query       *string `json:"query"`
	SearchLimit *int    `json:"search_limit" validate:"omitempty,gt=0"`
	Rescan      *bool   `json:"rescan"`
}

type submitJobResponse struct {
	JobID string `json:"job_id"`
}

// SubmitJobHandler registers one identifier search.
//
//	POST /api/submit-job {"id": "...", "query"?, "search_limit"?, "rescan"?}
func (s *Server) SubmitJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "Please check the parameters used in the search")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			badRequest(w, "You must submit an id as a parameter")
			return
		}

		jobID, err := s.Submit.SubmitJob(r.Context(), usecase.SubmitRequest{
			ID:          req.ID,
			URSTaxID:    req.URSTaxID,
			Query:       req.Query,
			SearchLimit: req.SearchLimit,
			Rescan:      req.Rescan != nil && *req.Rescan,
		})
		if err != nil {
			LoggerFrom(r).Error("submit failed", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, submitJobResponse{JobID: jobID})
	}
}

type multipleJobsRequest struct {
	JobIDs      []string `json:"job_id"`
	JobList     []string `json:"job_list"`
	Database    string   `json:"database" validate:"required"`
	PrimaryID   string   `json:"primary_id"`
	ID          string   `json:"id"`
	Query       *string  `json:"query"`
	SearchLimit *int     `json:"search_limit" validate:"omitempty,gt=0"`
	Rescan      *bool    `json:"rescan"`
}

type multipleJobsResponse struct {
	JobIDs    []string `json:"job_id"`
	Name      string   `json:"name"`
	PrimaryID string   `json:"primary_id"`
}

// MultipleJobsHandler registers a batch of identifiers under a dataset name.
//
//	POST /api/multiple-jobs {"job_id": [...], "database": "...", "primary_id"?, ...}
func (s *Server) MultipleJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req multipleJobsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "Please check the parameters used in the search")
			return
		}
		// Older clients submit the list as job_list and the primary as id.
		jobIDs := req.JobIDs
		if len(jobIDs) == 0 {
			jobIDs = req.JobList
		}
		if len(jobIDs) == 0 {
			badRequest(w, "You must submit a list of job_ids as a parameter")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			badRequest(w, "You must submit the database name as a parameter")
			return
		}
		primaryID := req.PrimaryID
		if primaryID == "" {
			primaryID = req.ID
		}

		ids, primary, err := s.Submit.SubmitMultiple(r.Context(), usecase.MultipleRequest{
			JobIDs:      jobIDs,
			Database:    req.Database,
			PrimaryID:   primaryID,
			Query:       req.Query,
			SearchLimit: req.SearchLimit,
			Rescan:      req.Rescan != nil && *req.Rescan,
		})
		if err != nil {
			LoggerFrom(r).Error("multiple submit failed", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, multipleJobsResponse{JobIDs: ids, Name: req.Database, PrimaryID: primary})
	}
}

// JobResultsHandler returns the stored results of a finished scan.
//
//	GET /api/results/{job_id}
func (s *Server) JobResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "job_id")
		results, err := s.Results.JobResults(r.Context(), jobID)
		if err != nil {
			LoggerFrom(r).Error("results lookup failed", slog.String("job_id", jobID), slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// HitCountHandler returns the number of publications per primary identifier.
//
//	GET /api/hit_count
func (s *Server) HitCountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.Results.HitCounts(r.Context())
		if err != nil {
			LoggerFrom(r).Error("hit count lookup failed", slog.Any("error", err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}
