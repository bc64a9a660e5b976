package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/quotegest/internal/compose"
	"github.com/dgallion1/quotegest/internal/config"
	"github.com/dgallion1/quotegest/internal/pipeline"
	"github.com/dgallion1/quotegest/internal/quote"
	"github.com/dgallion1/quotegest/internal/sentence"
)

const (
	testKey = "test-key"

	// Page one holds two short sentences, page two a longer one.
	sampleText = "The quick brown fox jumps over the lazy dog. It was a sunny day in the park.\f" +
		"Researchers found that sleep improves memory consolidation."
)

func testConfig() config.Config {
	return config.Config{
		APIKey:            testKey,
		WorkerCount:       1,
		MaxQueueSize:      8,
		MaxUploadBytes:    1 << 20,
		QuoteMinLength:    50,
		QuoteMaxLength:    300,
		QuoteCount:        5,
		QuotePreviewLimit: 20,
		QuoteExcerptRunes: 100,
		Segmenter:         sentence.NameRules,
		JobTTL:            time.Hour,
	}
}

func newTestServer(t *testing.T, cfg config.Config, claude *compose.ClaudeClient) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, sentence.Rules{}, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, sentence.Rules{}, claude, log, cfg)
}

type file struct {
	field, name, content string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...file) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(f.content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestAuth_Rejected(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	if rec := do(s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := do(s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rec.Code)
	}
}

func TestQuotes_Sync(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	req := multipartRequest(t, "/api/quotes",
		map[string]string{"min_length": "20", "max_length": "100", "quote_count": "1"},
		file{"file", "notes.txt", sampleText},
	)
	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[quotesResponse](t, rec)
	if resp.Document.PageCount != 2 || resp.Document.Title != "notes" {
		t.Errorf("unexpected document info: %+v", resp.Document)
	}
	if resp.TotalCandidates != 2 || resp.Located != 2 {
		t.Fatalf("expected 2 located candidates, got %d/%d", resp.Located, resp.TotalCandidates)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Rows))
	}

	first, second := resp.Rows[0], resp.Rows[1]
	if first.ID != 1 || first.Page != 1 || !first.Selected {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.Text != "The quick brown fox jumps over the lazy dog. It was a sunny day in the park." {
		t.Errorf("unexpected first text %q", first.Text)
	}
	if second.ID != 2 || second.Page != 2 || second.Selected {
		t.Errorf("unexpected second row: %+v", second)
	}
	if second.Match != quote.MatchExact {
		t.Errorf("expected exact match, got %q", second.Match)
	}
}

func TestQuotes_RequestValidation(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name   string
		fields map[string]string
		files  []file
		want   int
	}{
		{"min below range", map[string]string{"min_length": "5"}, []file{{"file", "a.txt", sampleText}}, http.StatusBadRequest},
		{"max above range", map[string]string{"max_length": "900"}, []file{{"file", "a.txt", sampleText}}, http.StatusBadRequest},
		{"non integer", map[string]string{"quote_count": "many"}, []file{{"file", "a.txt", sampleText}}, http.StatusBadRequest},
		{"missing file", nil, nil, http.StatusBadRequest},
		{"unsupported type", nil, []file{{"file", "a.xlsx", "x"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, multipartRequest(t, "/api/quotes", tt.fields, tt.files...))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestQuotes_Oversize(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16
	s := newTestServer(t, cfg, nil)

	rec := do(s, multipartRequest(t, "/api/quotes", nil, file{"file", "a.txt", sampleText}))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOversizedRequestBody(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16

	tests := []struct {
		name  string
		path  string
		field string
		size  int
	}{
		{"quotes", "/api/quotes", "file", 2 << 20},
		{"extract", "/api/extract", "file", 2 << 20},
		{"batch", "/api/extract/batch", "files", 11 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, cfg, nil)
			big := strings.Repeat("a", tt.size)
			rec := do(s, multipartRequest(t, tt.path, nil, file{tt.field, "big.txt", big}))
			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("expected 413, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestQuotes_EmptyDocument(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := do(s, multipartRequest(t, "/api/quotes", nil, file{"file", "blank.txt", "  "}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[quotesResponse](t, rec)
	if resp.TotalCandidates != 0 || len(resp.Rows) != 0 {
		t.Errorf("expected no quotes, got %+v", resp)
	}
}

func waitForJob(t *testing.T, s *Server, id string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/extract/"+id+"/status", nil)
		req.Header.Set("Authorization", "Bearer "+testKey)
		rec := do(s, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", rec.Code)
		}
		snap := decode[pipeline.JobSnapshot](t, rec)
		if snap.Status.Done() {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %q", id, snap.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExtract_AsyncFlow(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := do(s, multipartRequest(t, "/api/extract",
		map[string]string{"min_length": "20", "max_length": "100"},
		file{"file", "notes.txt", sampleText},
	))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode[map[string]string](t, rec)
	id := accepted["job_id"]
	if accepted["poll_url"] != "/api/extract/"+id+"/status" {
		t.Errorf("unexpected poll url %q", accepted["poll_url"])
	}

	snap := waitForJob(t, s, id)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q: %v", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Candidates != 2 || snap.Progress.Located != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/extract/"+id+"/quotes?quote_count=2", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec = do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("quotes: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Rows []quote.Row `json:"rows"`
	}](t, rec)
	if len(body.Rows) != 2 || !body.Rows[0].Selected || !body.Rows[1].Selected {
		t.Errorf("expected 2 selected rows, got %+v", body.Rows)
	}
}

func TestExtract_UnknownJob(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	for _, path := range []string{"/api/extract/nope/status", "/api/extract/nope/quotes"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+testKey)
		if rec := do(s, req); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestExtract_Batch(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := do(s, multipartRequest(t, "/api/extract/batch", nil,
		file{"files", "one.txt", sampleText},
		file{"files", "two.csv", "a,b"},
	))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Jobs []map[string]string `json:"jobs"`
	}](t, rec)
	if len(body.Jobs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(body.Jobs))
	}
	if body.Jobs[0]["job_id"] == "" || body.Jobs[0]["error"] != "" {
		t.Errorf("expected first file queued, got %v", body.Jobs[0])
	}
	if body.Jobs[1]["error"] == "" {
		t.Errorf("expected unsupported file error, got %v", body.Jobs[1])
	}

	if snap := waitForJob(t, s, body.Jobs[0]["job_id"]); snap.Status != pipeline.StatusCompleted {
		t.Errorf("expected batch job completed, got %q", snap.Status)
	}
}

func jsonRequest(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func row(id int, text string, page int, selected bool) quote.Row {
	return quote.Row{
		ID: id,
		Located: quote.Located{
			Candidate: quote.Candidate{Text: text, Length: len(text)},
			Page:      page,
		},
		Selected: selected,
	}
}

func TestDraft_TemplateFallback(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := do(s, jsonRequest(t, "/api/draft", map[string]any{
		"title":    "Sleep Research",
		"keywords": []string{"sleep"},
		"count":    2,
		"narrate":  true,
		"rows": []quote.Row{
			row(1, "Unplaced quote.", quote.Unknown, true),
			row(2, "Sleep improves memory.", 4, true),
			row(3, "Not selected.", 1, false),
		},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[draftResponse](t, rec)
	if resp.Filename != "sleep_research.md" {
		t.Errorf("unexpected filename %q", resp.Filename)
	}
	if resp.Quotes != 1 || resp.Narrated {
		t.Errorf("expected 1 templated quote, got quotes=%d narrated=%v", resp.Quotes, resp.Narrated)
	}
	if !strings.Contains(resp.Markdown, `"Sleep improves memory." (p. 4)`) {
		t.Errorf("missing citation:\n%s", resp.Markdown)
	}
	if strings.Contains(resp.Markdown, "Unplaced") || strings.Contains(resp.Markdown, "Not selected") {
		t.Errorf("draft cites rows it should skip:\n%s", resp.Markdown)
	}
	if !strings.Contains(resp.HTML, "<h1>Sleep Research</h1>") {
		t.Errorf("unexpected html %q", resp.HTML)
	}
}

func TestDraft_Narrated(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"Narrated analysis."}]}`))
	}))
	defer llm.Close()

	claude := compose.NewClaudeClient("k", "m")
	claude.SetURL(llm.URL)
	claude.Stats = compose.NewLLMStats(time.Hour)
	s := newTestServer(t, testConfig(), claude)

	rec := do(s, jsonRequest(t, "/api/draft", map[string]any{
		"title":   "T",
		"narrate": true,
		"rows":    []quote.Row{row(1, "Cited.", 1, true)},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[draftResponse](t, rec)
	if !resp.Narrated || !strings.Contains(resp.Markdown, "Narrated analysis.") {
		t.Errorf("expected narrated draft, got %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec = do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	stats := decode[struct {
		Model string                `json:"model"`
		Stats compose.StatsSnapshot `json:"stats"`
	}](t, rec)
	if stats.Model != "m" || stats.Stats.Count != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDraft_Rejections(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name string
		body any
	}{
		{"no usable rows", map[string]any{"title": "T", "rows": []quote.Row{row(1, "x", quote.Unknown, true)}}},
		{"count too large", map[string]any{"title": "T", "count": 11, "rows": []quote.Row{row(1, "x", 1, true)}}},
		{"bad json", "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(s, jsonRequest(t, "/api/draft", tt.body)); rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLLMStats_Unconfigured(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if rec := do(s, req); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd.txt", "passwd.txt"},
		{`C:\docs\notes.md`, "notes.md"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
