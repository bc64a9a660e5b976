package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/quotegest/internal/config"
	"github.com/dgallion1/quotegest/internal/parser"
	"github.com/dgallion1/quotegest/internal/quote"
)

var (
	errTooLarge    = errors.New("file exceeds max size")
	errUnsupported = errors.New("unsupported file type")
)

// parseForm parses a multipart body of at most limit bytes. It writes the
// error response itself and reports whether the handler should continue.
func parseForm(w http.ResponseWriter, r *http.Request, limit, maxMemory int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, "request too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// upload is one file taken from a multipart form.
type upload struct {
	filename string
	data     []byte
}

// readUpload opens fh and reads at most max bytes from it.
func readUpload(fh *multipart.FileHeader, max int64) (upload, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return upload{filename: filename}, fmt.Errorf("%w: %s", errUnsupported, filepath.Ext(filename))
	}

	f, err := fh.Open()
	if err != nil {
		return upload{filename: filename}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return upload{filename: filename}, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > max {
		return upload{filename: filename}, fmt.Errorf("%w (%d bytes)", errTooLarge, max)
	}
	return upload{filename: filename, data: data}, nil
}

// uploadStatus maps a readUpload error to an HTTP status.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupported):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// quoteParams reads min_length, max_length and quote_count from the form,
// falling back to the configured defaults.
func quoteParams(r *http.Request, cfg config.Config) (quote.Bounds, int, error) {
	b := quote.Bounds{MinLength: cfg.QuoteMinLength, MaxLength: cfg.QuoteMaxLength}
	count := cfg.QuoteCount

	fields := []struct {
		name     string
		dst      *int
		min, max int
	}{
		{"min_length", &b.MinLength, config.MinQuoteMinLength, config.MaxQuoteMinLength},
		{"max_length", &b.MaxLength, config.MinQuoteMaxLength, config.MaxQuoteMaxLength},
		{"quote_count", &count, 1, config.MaxQuoteCount},
	}
	for _, f := range fields {
		v := strings.TrimSpace(r.FormValue(f.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return b, 0, fmt.Errorf("%s must be an integer", f.name)
		}
		if n < f.min || n > f.max {
			return b, 0, fmt.Errorf("%s must be between %d and %d", f.name, f.min, f.max)
		}
		*f.dst = n
	}

	if err := b.Validate(); err != nil {
		return b, 0, err
	}
	return b, count, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
