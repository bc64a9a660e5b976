package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/quotegest/internal/document"
	"github.com/dgallion1/quotegest/internal/quote"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusPacking    JobStatus = "packing"
	StatusLocating   JobStatus = "locating"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether no further transitions will happen.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Job tracks the state of a single quote extraction.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Bounds   quote.Bounds `json:"bounds"`
	Progress Progress     `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	quotes   []quote.Located
	errors   []string
}

// Progress counts what each stage produced.
type Progress struct {
	Pages      int      `json:"pages"`
	Sentences  int      `json:"sentences"`
	Candidates int      `json:"candidates"`
	Located    int      `json:"located"`
	Unlocated  int      `json:"unlocated"`
	Errors     []string `json:"errors"`
}

// NewJob creates a queued job for an uploaded file.
func NewJob(filename, title string, data []byte, b quote.Bounds) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		Bounds:    b,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// FindCompleted returns a completed job other than excludeID whose content
// hash and bounds match, or nil.
func (s *JobStore) FindCompleted(hash string, b quote.Bounds, excludeID string) *Job {
	if hash == "" {
		return nil
	}
	s.mu.Lock()
	candidates := make([]*Job, 0, len(s.jobs))
	for id, job := range s.jobs {
		if id != excludeID {
			candidates = append(candidates, job)
		}
	}
	s.mu.Unlock()

	for _, job := range candidates {
		job.mu.Lock()
		match := job.Status == StatusCompleted && job.ContentHash == hash && job.Bounds == b
		job.mu.Unlock()
		if match {
			return job
		}
	}
	return nil
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the parsed pages.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetPages records how many pages the parsed document has.
func (j *Job) SetPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Pages = n
	j.UpdatedAt = time.Now()
}

// SetSentences records how many sentences segmentation produced.
func (j *Job) SetSentences(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sentences = n
	j.UpdatedAt = time.Now()
}

// SetCandidates records how many candidates packing produced.
func (j *Job) SetCandidates(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Candidates = n
	j.UpdatedAt = time.Now()
}

// IncrLocated counts one located or unlocated candidate.
func (j *Job) IncrLocated(known bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if known {
		j.Progress.Located++
	} else {
		j.Progress.Unlocated++
	}
	j.UpdatedAt = time.Now()
}

// SetQuotes stores the final located quotes.
func (j *Job) SetQuotes(quotes []quote.Located) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.quotes = quotes
	j.UpdatedAt = time.Now()
}

// Quotes returns a copy of the located quotes.
func (j *Job) Quotes() []quote.Located {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.quotes)
}

// CopyResult takes the progress counters and quotes of a finished job.
func (j *Job) CopyResult(src *Job) {
	src.mu.Lock()
	progress := src.Progress
	quotes := slices.Clone(src.quotes)
	src.mu.Unlock()

	j.mu.Lock()
	defer j.mu.Unlock()
	progress.Errors = j.errors
	j.Progress = progress
	j.quotes = quotes
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string       `json:"job_id"`
	Status      JobStatus    `json:"status"`
	Phase       string       `json:"phase"`
	Filename    string       `json:"filename"`
	Title       string       `json:"title"`
	Bounds      quote.Bounds `json:"bounds"`
	ContentHash string       `json:"content_hash,omitempty"`
	Progress    Progress     `json:"progress"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	progress := j.Progress
	progress.Errors = slices.Clone(j.Progress.Errors)
	if progress.Errors == nil {
		progress.Errors = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Bounds:      j.Bounds,
		ContentHash: j.ContentHash,
		Progress:    progress,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}


// DocumentHashHex hashes the page layout as well as the text, so the same
// words split across different pages never share a dedup key.
func DocumentHashHex(doc *document.Document) string {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(doc.Pages)))
	h.Write(n[:])
	for _, p := range doc.Pages {
		binary.BigEndian.PutUint64(n[:], uint64(len(p.Text)))
		h.Write(n[:])
		h.Write([]byte(p.Text))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
