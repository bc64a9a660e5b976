package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/quotegest/internal/compose"
	"github.com/dgallion1/quotegest/internal/config"
	"github.com/dgallion1/quotegest/internal/quote"
)

type draftRequest struct {
	Title    string      `json:"title"`
	Keywords []string    `json:"keywords"`
	Count    int         `json:"count"`
	Rows     []quote.Row `json:"rows"`
	Narrate  bool        `json:"narrate"`
}

type draftResponse struct {
	Filename string `json:"filename"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
	Quotes   int    `json:"quotes"`
	Narrated bool   `json:"narrated"`
}

// handleDraft builds a draft text from reviewed rows. Only selected rows
// with a known page are cited.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Count == 0 {
		req.Count = s.cfg.QuoteCount
	}
	if req.Count < 1 || req.Count > config.MaxQuoteCount {
		jsonError(w, fmt.Sprintf("count must be between 1 and %d", config.MaxQuoteCount), http.StatusBadRequest)
		return
	}

	chosen := quote.Choose(req.Rows, req.Count)
	if len(chosen) == 0 {
		jsonError(w, "no selected quotes with a known page", http.StatusBadRequest)
		return
	}

	d := compose.Draft{
		Title:        req.Title,
		Keywords:     req.Keywords,
		Quotes:       chosen,
		ExcerptRunes: s.cfg.QuoteExcerptRunes,
	}

	narrated := false
	if req.Narrate && s.claude != nil {
		analysis, err := s.claude.Narrate(r.Context(), d)
		if err != nil {
			s.log.Warn("narration failed, using template", "error", err)
		} else {
			d.Analysis = analysis
			narrated = true
		}
	}

	md, err := compose.Markdown(d)
	if err != nil {
		s.log.Error("render draft failed", "error", err)
		jsonError(w, "failed to render draft", http.StatusInternalServerError)
		return
	}
	html, err := compose.HTML(md)
	if err != nil {
		s.log.Error("render html failed", "error", err)
		jsonError(w, "failed to render draft", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, draftResponse{
		Filename: compose.Filename(req.Title),
		Markdown: md,
		HTML:     html,
		Quotes:   len(chosen),
		Narrated: narrated,
	})
}
