package api

import (
	"bytes"
	"net/http"

	"github.com/dgallion1/quotegest/internal/parser"
	"github.com/dgallion1/quotegest/internal/quote"
)

type documentInfo struct {
	Filename  string `json:"filename"`
	Title     string `json:"title"`
	PageCount int    `json:"page_count"`
}

type quotesResponse struct {
	Document        documentInfo `json:"document"`
	Bounds          quote.Bounds `json:"bounds"`
	QuoteCount      int          `json:"quote_count"`
	TotalCandidates int          `json:"total_candidates"`
	Located         int          `json:"located"`
	Rows            []quote.Row  `json:"rows"`
}

// handleQuotes extracts quotes from one upload within the request.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	// extra 1MB for form overhead
	if !parseForm(w, r, s.cfg.MaxUploadBytes+1024*1024, 32<<20) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	bounds, count, err := quoteParams(r, s.cfg)
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

	p, err := parser.ForFile(up.filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := p.Parse(bytes.NewReader(up.data), up.filename)
	if err != nil {
		s.log.Error("parse failed", "filename", up.filename, "error", err)
		jsonError(w, "failed to parse document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if title := r.FormValue("title"); title != "" {
		doc.Title = title
	}

	quotes, err := quote.Extract(doc, s.seg, bounds)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Info("quotes extracted",
		"filename", up.filename,
		"pages", doc.PageCount,
		"candidates", len(quotes),
		"located", quote.CountKnown(quotes),
	)

	writeJSON(w, http.StatusOK, quotesResponse{
		Document: documentInfo{
			Filename:  up.filename,
			Title:     doc.Title,
			PageCount: doc.PageCount,
		},
		Bounds:          bounds,
		QuoteCount:      count,
		TotalCandidates: len(quotes),
		Located:         quote.CountKnown(quotes),
		Rows:            quote.Preview(quotes, s.cfg.QuotePreviewLimit, count),
	})
}
