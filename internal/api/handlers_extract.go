package api

import (
	"fmt"
	"net/http"

	"github.com/dgallion1/quotegest/internal/pipeline"
	"github.com/dgallion1/quotegest/internal/quote"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r, s.cfg.MaxUploadBytes+1024*1024, 32<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	bounds, _, err := quoteParams(r, s.cfg)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	up, err := readUpload(files[0], s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), uploadStatus(err))
		return
	}

	job := pipeline.NewJob(up.filename, r.FormValue("title"), up.data, bounds)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": pollURL(job.ID),
	})
}

func (s *Server) handleBatchExtract(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r, s.cfg.MaxUploadBytes*10+10*1024*1024, 64<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	bounds, _, err := quoteParams(r, s.cfg)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		up, err := readUpload(fh, s.cfg.MaxUploadBytes)
		if err != nil {
			results = append(results, map[string]any{
				"filename": up.filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(up.filename, "", up.data, bounds)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": up.filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": up.filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": pollURL(job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleExtractStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleExtractQuotes returns the preview rows of a finished job. The
// quote_count query parameter sets how many rows start selected.
func (s *Server) handleExtractQuotes(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted, pipeline.StatusDupSkipped:
	case pipeline.StatusFailed:
		jsonError(w, "job failed", http.StatusUnprocessableEntity)
		return
	default:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job not finished",
			"status": snap.Status,
		})
		return
	}

	_, count, err := quoteParams(r, s.cfg)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	quotes := job.Quotes()
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":           snap.ID,
		"status":           snap.Status,
		"bounds":           snap.Bounds,
		"quote_count":      count,
		"total_candidates": len(quotes),
		"located":          quote.CountKnown(quotes),
		"rows":             quote.Preview(quotes, s.cfg.QuotePreviewLimit, count),
	})
}

func pollURL(jobID string) string {
	return fmt.Sprintf("/api/extract/%s/status", jobID)
}
