package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/litscan/litscan/internal/usecase"
)

// ConsumerServer is the worker's single-endpoint HTTP surface: the producer
// posts a job id and the scan runs in the background.
type ConsumerServer struct {
	Scan usecase.ScanService
	IP   string
}

func NewConsumerServer(scan usecase.ScanService, ip string) *ConsumerServer {
	return &ConsumerServer{Scan: scan, IP: ip}
}

type consumerJobRequest struct {
	JobID string `json:"job_id"`
}

// SubmitJobHandler accepts one job, claims it synchronously and spawns the
// scan. Responds 201 as soon as the claim is recorded.
//
//	POST /submit-job {"job_id": "..."}
func (s *ConsumerServer) SubmitJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req consumerJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
			badRequest(w, "job_id not found")
			return
		}

		if err := s.Scan.Accept(r.Context(), req.JobID, s.IP); err != nil {
			LoggerFrom(r).Error("failed to accept job", slog.String("job_id", req.JobID), slog.Any("error", err))
			writeError(w, err)
			return
		}

		LoggerFrom(r).Info("job accepted", slog.String("job_id", req.JobID))
		// The request context dies with the response; the scan gets its own.
		go s.Scan.Run(context.Background(), req.JobID, s.IP)
		w.WriteHeader(http.StatusCreated)
	}
}
